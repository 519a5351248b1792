package image

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/picshelf/service/internal/middleware"
	"github.com/picshelf/service/internal/response"
	"github.com/picshelf/service/internal/user"
)

// UserLookup loads the authenticated user with its storage configuration.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// Handler holds HTTP handlers for image endpoints.
type Handler struct {
	svc   *Service
	users UserLookup
}

// NewHandler creates a new image Handler.
func NewHandler(svc *Service, users UserLookup) *Handler {
	return &Handler{svc: svc, users: users}
}

type uploadRequest struct {
	Number *uint32 `json:"number" example:"3"`
}

// RequestUpload godoc
//
//	@Summary		Request upload URLs
//	@Description	Allocates `number` image groups and returns presigned PUT URLs for their small, medium and original variants. URLs expire after 600 seconds.
//	@Tags			images
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		uploadRequest	true	"Number of groups (0..32)"
//	@Success		200		{array}		UploadSlot
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		401		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Failure		502		{object}	response.ErrorBody
//	@Router			/images [post]
func (h *Handler) RequestUpload(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req uploadRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Number == nil {
		response.BadRequest(w, "number is required")
		return
	}
	if *req.Number > MaxFilesPerRequest {
		response.BadRequest(w, fmt.Sprintf("number must be between 0 and %d", MaxFilesPerRequest))
		return
	}

	slots, err := h.svc.RequestUpload(r.Context(), u, int(*req.Number))
	if err != nil {
		writeError(w, r, "request upload", err)
		return
	}
	response.OK(w, slots)
}

// ListImages godoc
//
//	@Summary		List image groups
//	@Description	Returns every image group of the caller in insertion order.
//	@Tags			images
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		Group
//	@Failure		401	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/images [get]
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	groups, err := h.svc.ListGroups(r.Context(), userID)
	if err != nil {
		writeError(w, r, "list images", err)
		return
	}
	response.OK(w, groups)
}

// GetImage godoc
//
//	@Summary		Download an image
//	@Description	Redirects to a presigned GET URL for a filename from one of the caller's groups.
//	@Tags			images
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Filename of any variant"
//	@Success		307
//	@Failure		401	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Failure		502	{object}	response.ErrorBody
//	@Router			/images/{id} [get]
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	url, err := h.svc.ResolveDownload(r.Context(), u, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "resolve download", err)
		return
	}

	response.Redirect(w, r, url)
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return nil, false
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if errors.Is(err, user.ErrNotFound) {
		response.Unauthorized(w, "unknown user")
		return nil, false
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "load user", "user_id", userID, "error", err)
		response.InternalError(w)
		return nil, false
	}
	return u, true
}

func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "image not found")
	case errors.Is(err, ErrObjectStore):
		slog.WarnContext(r.Context(), op, "error", err)
		response.BadGateway(w, "object store unavailable")
	default:
		slog.ErrorContext(r.Context(), op, "error", err)
		response.InternalError(w)
	}
}
