package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/vedran77/parley/internal/access"
	"github.com/vedran77/parley/internal/logger"
	"github.com/vedran77/parley/pkg/validator"
)

type idResponse struct {
	ID uuid.UUID `json:"id"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	writeJSON(w, r, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, r *http.Request, errs validator.ValidationErrors) {
	writeJSON(w, r, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION_ERROR",
			"fields": errs,
		},
	})
}

// writeFailure handles the errors every authenticated operation can return.
func writeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, access.ErrUnauthenticated) {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in to continue")
		return
	}
	logger.FromContext(r.Context()).Error(op+" failed", slog.Any("error", err))
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", "Invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}
