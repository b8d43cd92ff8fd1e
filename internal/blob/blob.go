// Package blob stores attachment bytes (avatars) outside the document store.
// Clients upload directly to a short-lived target and later refer to the
// object by its ref.
package blob

import (
	"context"
	"time"
)

//go:generate mockgen -source=blob.go -destination=../mocks/mock_blob_store.go -package=mocks

type UploadTarget struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	Ref       string    `json:"ref"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Store interface {
	// IssueUploadTarget reserves a new ref and returns where its bytes go.
	IssueUploadTarget(ctx context.Context) (UploadTarget, error)
	// URL returns a retrievable URL for ref, or nil when no object exists.
	URL(ctx context.Context, ref string) (*string, error)
}
