package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/vedran77/parley/internal/logger"
	"github.com/vedran77/parley/internal/service"
	"github.com/vedran77/parley/pkg/validator"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := validator.Struct(input); errs.HasErrors() {
		writeValidationErrors(w, r, errs)
		return
	}

	resp, err := h.authService.Register(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, r, http.StatusConflict, "EMAIL_TAKEN", "Email is already registered")
		default:
			logger.FromContext(r.Context()).Error("register failed", slog.Any("error", err))
			writeError(w, r, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, r, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := validator.Struct(input); errs.HasErrors() {
		writeValidationErrors(w, r, errs)
		return
	}

	resp, err := h.authService.Login(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			writeError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		} else {
			logger.FromContext(r.Context()).Error("login failed", slog.Any("error", err))
			writeError(w, r, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, r, http.StatusOK, resp)
}
