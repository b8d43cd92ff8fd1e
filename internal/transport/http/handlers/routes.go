package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	Auth     *AuthHandler
	Channels *ChannelHandler
	Messages *MessageHandler
	Profiles *ProfileHandler
	// Storage is nil when blobs live in an external store.
	Storage *StorageHandler
}

// Mount registers the REST API under /api/v1.
func (h Handlers) Mount(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)

		if h.Storage != nil {
			r.Post("/storage/upload/{token}", h.Storage.Upload)
			r.Get("/storage/{ref}", h.Storage.Download)
		}

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/channels", h.Channels.List)
			r.Post("/channels", h.Channels.Create)
			r.Get("/channels/{id}", h.Channels.Get)
			r.Get("/channels/{id}/messages", h.Messages.List)
			r.Post("/channels/{id}/messages", h.Messages.Send)
			r.Get("/messages/search", h.Messages.Search)

			r.Get("/profile", h.Profiles.Get)
			r.Put("/profile", h.Profiles.Update)
			r.Post("/profile/avatar-upload", h.Profiles.AvatarUpload)
		})
	})
}
