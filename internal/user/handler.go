package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/picshelf/service/internal/middleware"
	"github.com/picshelf/service/internal/response"
)

// Handler holds HTTP handlers for user-related endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new user Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GetMe godoc
//
//	@Summary		Get current user
//	@Description	Returns the profile of the authenticated user. Storage credentials are never returned.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	Profile
//	@Failure		401	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/users/me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	u, err := h.svc.GetByID(r.Context(), userID)
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "user not found")
			return
		}
		slog.ErrorContext(r.Context(), "get user", "user_id", userID, "error", err)
		response.InternalError(w)
		return
	}

	response.OK(w, u.Profile())
}

// UpdateStorage godoc
//
//	@Summary		Set object storage configuration
//	@Description	Stores the S3-compatible endpoint and credentials used to presign this user's image URLs.
//	@Tags			users
//	@Accept			json
//	@Security		BearerAuth
//	@Param			request	body	StorageConfig	true	"Object storage configuration"
//	@Success		204
//	@Failure		400	{object}	response.ErrorBody
//	@Failure		401	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/users/me/storage [put]
func (h *Handler) UpdateStorage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var cfg StorageConfig
	if err := response.Decode(w, r, &cfg); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	err := h.svc.UpdateStorage(r.Context(), userID, cfg)
	switch {
	case err == nil:
		response.NoContent(w)
	case errors.Is(err, ErrInvalidStorage):
		response.BadRequest(w, err.Error())
	case h.svc.IsNotFound(err):
		response.NotFound(w, "user not found")
	default:
		slog.ErrorContext(r.Context(), "update storage", "user_id", userID, "error", err)
		response.InternalError(w)
	}
}

// ClearStorage godoc
//
//	@Summary		Remove object storage configuration
//	@Tags			users
//	@Security		BearerAuth
//	@Success		204
//	@Failure		401	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/users/me/storage [delete]
func (h *Handler) ClearStorage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := h.svc.ClearStorage(r.Context(), userID); err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "user not found")
			return
		}
		slog.ErrorContext(r.Context(), "clear storage", "user_id", userID, "error", err)
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}
