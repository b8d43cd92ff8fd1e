package service

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/parley/internal/access"
	"github.com/vedran77/parley/internal/blob"
	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/repository"
	"go.uber.org/mock/gomock"
)

func storedProfile(t *testing.T, f *fixture, userID uuid.UUID) *domain.Profile {
	t.Helper()
	var p *domain.Profile
	require.NoError(t, f.store.View(context.Background(), func(tx repository.Tx) error {
		var err error
		p, err = tx.Profiles().GetByUser(context.Background(), userID)
		return err
	}))
	return p
}

func TestProfileService_RequiresIdentity(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.profiles.Get(ctx)
	require.ErrorIs(t, err, access.ErrUnauthenticated)
	_, err = f.profiles.Update(ctx, UpdateProfileInput{DisplayName: "x"})
	require.ErrorIs(t, err, access.ErrUnauthenticated)
	_, err = f.profiles.IssueUploadTarget(ctx)
	require.ErrorIs(t, err, access.ErrUnauthenticated)
}

func TestProfileService_GetMissingIsNil(t *testing.T) {
	f := newFixture(t, nil)

	p, err := f.profiles.Get(as(uuid.New()))
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestProfileService_UpdateCreatesThenOverwrites(t *testing.T) {
	f := newFixture(t, nil)
	user := uuid.New()

	view, err := f.profiles.Update(as(user), UpdateProfileInput{DisplayName: "  Ada  "})
	require.NoError(t, err)
	require.Equal(t, "Ada", view.DisplayName)
	require.Equal(t, user, view.UserID)
	require.Nil(t, view.AvatarURL)

	_, err = f.profiles.Update(as(user), UpdateProfileInput{DisplayName: "Ada Lovelace"})
	require.NoError(t, err)

	got, err := f.profiles.Get(as(user))
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", got.DisplayName)
}

func TestProfileService_EmptyDisplayNameLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t, nil)
	newcomer, existing := uuid.New(), uuid.New()
	f.profile(t, existing, "Grace", nil)
	before := storedProfile(t, f, existing)

	for _, name := range []string{"", "   "} {
		_, err := f.profiles.Update(as(newcomer), UpdateProfileInput{DisplayName: name})
		require.ErrorIs(t, err, ErrDisplayNameRequired)
		_, err = f.profiles.Update(as(existing), UpdateProfileInput{DisplayName: name, AvatarRef: domain.SetAvatar("ref")})
		require.ErrorIs(t, err, ErrDisplayNameRequired)
	}

	require.Nil(t, storedProfile(t, f, newcomer))
	require.Equal(t, before, storedProfile(t, f, existing))
}

func TestProfileService_AvatarTriState(t *testing.T) {
	f := newFixture(t, nil)
	user := uuid.New()
	url := "http://blobs/ref-1"
	f.blobs.EXPECT().URL(gomock.Any(), "ref-1").Return(&url, nil).Times(2)

	view, err := f.profiles.Update(as(user), UpdateProfileInput{DisplayName: "Ada", AvatarRef: domain.SetAvatar("ref-1")})
	require.NoError(t, err)
	require.Equal(t, url, *view.AvatarURL)

	// absent keeps the avatar
	var keep UpdateProfileInput
	require.NoError(t, json.Unmarshal([]byte(`{"display_name":"Ada L"}`), &keep))
	view, err = f.profiles.Update(as(user), keep)
	require.NoError(t, err)
	require.Equal(t, "ref-1", *view.AvatarRef)

	// null clears it without asking the blob store
	var clearReq UpdateProfileInput
	require.NoError(t, json.Unmarshal([]byte(`{"display_name":"Ada L","avatar_ref":null}`), &clearReq))
	view, err = f.profiles.Update(as(user), clearReq)
	require.NoError(t, err)
	require.Nil(t, view.AvatarRef)
	require.Nil(t, view.AvatarURL)

	got, err := f.profiles.Get(as(user))
	require.NoError(t, err)
	require.Nil(t, got.AvatarURL)
}

func TestProfileService_NullAvatarNeverResolves(t *testing.T) {
	// the mock blob store has no expectations
	f := newFixture(t, nil)
	a, b := uuid.New(), uuid.New()
	f.profile(t, a, "A", nil)
	empty := ""
	f.profile(t, b, "B", &empty)

	for _, user := range []uuid.UUID{a, b} {
		p, err := f.profiles.Get(as(user))
		require.NoError(t, err)
		require.Nil(t, p.AvatarURL)
	}
}

func TestProfileService_IssueUploadTarget(t *testing.T) {
	f := newFixture(t, nil)
	want := blob.UploadTarget{URL: "http://up", Method: "PUT", Ref: "ref-9", ExpiresAt: time.Now()}
	f.blobs.EXPECT().IssueUploadTarget(gomock.Any()).Return(want, nil)

	got, err := f.profiles.IssueUploadTarget(as(uuid.New()))
	require.NoError(t, err)
	require.Equal(t, want, *got)
}

func TestProfileService_UploadedAvatarResolves(t *testing.T) {
	ctx := context.Background()
	blobs, err := blob.NewMemoryLocal(blob.LocalOptions{
		BaseURL:   "http://localhost/api/v1/storage",
		UploadTTL: time.Minute,
		MaxBytes:  1 << 10,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = blobs.Close() })

	f := newFixture(t, nil)
	profiles := NewProfileService(f.store, blobs, NewAttachmentResolver(blobs), discard)
	user := uuid.New()

	target, err := profiles.IssueUploadTarget(as(user))
	require.NoError(t, err)

	// the ref is accepted before the upload but resolves to nothing yet
	view, err := profiles.Update(as(user), UpdateProfileInput{DisplayName: "Ada", AvatarRef: domain.SetAvatar(target.Ref)})
	require.NoError(t, err)
	require.Nil(t, view.AvatarURL)

	token := target.URL[len("http://localhost/api/v1/storage/upload/"):]
	_, err = blobs.Put(ctx, token, bytes.NewReader([]byte("GIF89a")))
	require.NoError(t, err)

	view, err = profiles.Get(as(user))
	require.NoError(t, err)
	require.Equal(t, "http://localhost/api/v1/storage/"+target.Ref, *view.AvatarURL)
}
