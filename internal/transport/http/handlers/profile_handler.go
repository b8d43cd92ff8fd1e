package handlers

import (
	"errors"
	"net/http"

	"github.com/vedran77/parley/internal/service"
	"github.com/vedran77/parley/pkg/validator"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileService.Get(r.Context())
	if err != nil {
		writeFailure(w, r, "get profile", err)
		return
	}

	writeJSON(w, r, http.StatusOK, profile)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input service.UpdateProfileInput
	if !decodeJSON(w, r, &input) {
		return
	}

	profile, err := h.profileService.Update(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrDisplayNameRequired) {
			writeValidationErrors(w, r, validator.ValidationErrors{"display_name": "Display name is required"})
			return
		}
		writeFailure(w, r, "update profile", err)
		return
	}

	writeJSON(w, r, http.StatusOK, profile)
}

func (h *ProfileHandler) AvatarUpload(w http.ResponseWriter, r *http.Request) {
	target, err := h.profileService.IssueUploadTarget(r.Context())
	if err != nil {
		writeFailure(w, r, "issue upload target", err)
		return
	}

	writeJSON(w, r, http.StatusOK, target)
}
