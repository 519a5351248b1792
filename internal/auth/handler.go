package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/picshelf/service/internal/response"
	"github.com/picshelf/service/internal/user"
)

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type credentialsRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"correct-horse"`
}

type tokenData struct {
	Token string `json:"token" example:"eyJhbGci..."`
}

type registerData struct {
	Token string       `json:"token" example:"eyJhbGci..."`
	User  user.Profile `json:"user"`
}

// Register godoc
//
//	@Summary		Register new user
//	@Description	Create an account and return a JWT for it.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		credentialsRequest	true	"Username and password"
//	@Success		201		{object}	registerData
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		409		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	token, u, err := h.svc.Register(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		response.Created(w, registerData{Token: token, User: u.Profile()})
	case errors.Is(err, ErrInvalidInput):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrUsernameTaken):
		response.Conflict(w, err.Error())
	default:
		slog.ErrorContext(r.Context(), "register", "error", err)
		response.InternalError(w)
	}
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Exchange a username and password for a JWT.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		credentialsRequest	true	"Username and password"
//	@Success		200		{object}	tokenData
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		401		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	token, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		response.Unauthorized(w, err.Error())
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "login", "error", err)
		response.InternalError(w)
		return
	}

	response.OK(w, tokenData{Token: token})
}
