package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vedran77/parley/internal/blob"
	"github.com/vedran77/parley/internal/logger"
)

// BlobStorage is the part of the local blob store served over HTTP.
type BlobStorage interface {
	Put(ctx context.Context, token string, body io.Reader) (string, error)
	Get(ctx context.Context, ref string) (*blob.Object, error)
}

// StorageHandler serves uploads and downloads for the local blob store.
// Uploads authenticate with their one-time token instead of a bearer token.
type StorageHandler struct {
	blobs    BlobStorage
	onUpload func(ref string)
}

func NewStorageHandler(blobs BlobStorage, onUpload func(ref string)) *StorageHandler {
	return &StorageHandler{blobs: blobs, onUpload: onUpload}
}

type uploadResponse struct {
	Ref string `json:"ref"`
}

func (h *StorageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ref, err := h.blobs.Put(r.Context(), chi.URLParam(r, "token"), r.Body)
	if err != nil {
		switch {
		case errors.Is(err, blob.ErrInvalidUploadToken):
			writeError(w, r, http.StatusForbidden, "INVALID_TOKEN", "Upload link is invalid or expired")
		case errors.Is(err, blob.ErrTooLarge):
			writeError(w, r, http.StatusRequestEntityTooLarge, "TOO_LARGE", "File is too large")
		default:
			logger.FromContext(r.Context()).Error("blob upload failed", slog.Any("error", err))
			writeError(w, r, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	if h.onUpload != nil {
		h.onUpload(ref)
	}
	writeJSON(w, r, http.StatusCreated, uploadResponse{Ref: ref})
}

func (h *StorageHandler) Download(w http.ResponseWriter, r *http.Request) {
	obj, err := h.blobs.Get(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		logger.FromContext(r.Context()).Error("blob download failed", slog.Any("error", err))
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}
	if obj == nil {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "File not found")
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(obj.Data)
}
