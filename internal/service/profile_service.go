package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vedran77/parley/internal/access"
	"github.com/vedran77/parley/internal/blob"
	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/repository"
)

var ErrDisplayNameRequired = errors.New("display name is required")

type ProfileService struct {
	store       repository.Store
	blobs       blob.Store
	attachments *AttachmentResolver
	log         *slog.Logger
}

func NewProfileService(store repository.Store, blobs blob.Store, attachments *AttachmentResolver, log *slog.Logger) *ProfileService {
	return &ProfileService{
		store:       store,
		blobs:       blobs,
		attachments: attachments,
		log:         log,
	}
}

type UpdateProfileInput struct {
	DisplayName string `json:"display_name"`
	// AvatarRef keeps the avatar when absent from the request, clears it on
	// null and replaces it on a string.
	AvatarRef domain.AvatarChange `json:"avatar_ref"`
}

// Get returns the caller's profile, or nil when none was saved yet.
func (s *ProfileService) Get(ctx context.Context) (*domain.ProfileView, error) {
	userID, err := access.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	var profile *domain.Profile
	err = s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		profile, err = tx.Profiles().GetByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	if profile == nil {
		return nil, nil
	}
	return s.view(ctx, profile)
}

// Update creates or overwrites the caller's single profile.
func (s *ProfileService) Update(ctx context.Context, input UpdateProfileInput) (*domain.ProfileView, error) {
	userID, err := access.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		return nil, ErrDisplayNameRequired
	}

	var profile *domain.Profile
	err = s.store.Update(ctx, func(tx repository.Tx) error {
		current, err := tx.Profiles().GetByUser(ctx, userID)
		if err != nil {
			return err
		}

		var ref *string
		if current != nil {
			ref = current.AvatarRef
		}
		profile = &domain.Profile{
			UserID:      userID,
			DisplayName: displayName,
			AvatarRef:   input.AvatarRef.Apply(ref),
			UpdatedAt:   time.Now(),
		}
		return tx.Profiles().Upsert(ctx, profile)
	})
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	s.log.Debug("profile updated", slog.String("user_id", userID.String()))
	return s.view(ctx, profile)
}

// IssueUploadTarget reserves a blob ref for a new avatar. The ref becomes
// usable as avatar_ref once the upload has completed.
func (s *ProfileService) IssueUploadTarget(ctx context.Context) (*blob.UploadTarget, error) {
	if _, err := access.Resolve(ctx); err != nil {
		return nil, err
	}

	target, err := s.blobs.IssueUploadTarget(ctx)
	if err != nil {
		return nil, fmt.Errorf("issuing upload target: %w", err)
	}
	return &target, nil
}

func (s *ProfileService) view(ctx context.Context, profile *domain.Profile) (*domain.ProfileView, error) {
	url, err := s.attachments.Resolve(ctx, profile.AvatarRef)
	if err != nil {
		return nil, err
	}
	return &domain.ProfileView{Profile: *profile, AvatarURL: url}, nil
}
