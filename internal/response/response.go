// Package response writes the JSON bodies and status codes shared by all handlers.
package response

import (
	"encoding/json"
	"net/http"
)

// maxBodyBytes bounds every decoded request body.
const maxBodyBytes = 1 << 20

// ErrorBody is the body of every non-2xx JSON response.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON encodes payload with status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Decode reads a JSON request body of at most 1 MiB into dst.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

// OK sends data with 200.
func OK(w http.ResponseWriter, data any) { JSON(w, http.StatusOK, data) }

// Created sends data with 201.
func Created(w http.ResponseWriter, data any) { JSON(w, http.StatusCreated, data) }

// NoContent sends an empty 204.
func NoContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }

// Redirect sends a 307 to a short-lived URL that must not be cached.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// Error sends {"error": message} with status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

func BadRequest(w http.ResponseWriter, message string)   { Error(w, http.StatusBadRequest, message) }
func Unauthorized(w http.ResponseWriter, message string) { Error(w, http.StatusUnauthorized, message) }
func NotFound(w http.ResponseWriter, message string)     { Error(w, http.StatusNotFound, message) }
func Conflict(w http.ResponseWriter, message string)     { Error(w, http.StatusConflict, message) }

// BadGateway reports a failing upstream such as the object store.
func BadGateway(w http.ResponseWriter, message string) { Error(w, http.StatusBadGateway, message) }

// InternalError hides the cause behind a generic 500.
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "internal server error")
}
