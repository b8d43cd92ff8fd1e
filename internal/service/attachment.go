package service

import (
	"context"
	"fmt"

	"github.com/vedran77/parley/internal/blob"
)

// AttachmentResolver turns stored avatar refs into fetchable URLs. Every call
// asks the blob store again.
type AttachmentResolver struct {
	blobs blob.Store
}

func NewAttachmentResolver(blobs blob.Store) *AttachmentResolver {
	return &AttachmentResolver{blobs: blobs}
}

// Resolve returns nil for an absent ref or an object the store does not have.
func (r *AttachmentResolver) Resolve(ctx context.Context, ref *string) (*string, error) {
	if ref == nil || *ref == "" {
		return nil, nil
	}
	url, err := r.blobs.URL(ctx, *ref)
	if err != nil {
		return nil, fmt.Errorf("resolving attachment %s: %w", *ref, err)
	}
	return url, nil
}
