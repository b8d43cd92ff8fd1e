package blob

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newLocal(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewMemoryLocal(LocalOptions{
		BaseURL:   "http://localhost:8080/api/v1/storage",
		UploadTTL: 15 * time.Minute,
		MaxBytes:  1024,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func tokenOf(t *testing.T, target UploadTarget) string {
	t.Helper()
	_, token, ok := strings.Cut(target.URL, "/upload/")
	require.True(t, ok, target.URL)
	return token
}

func TestLocalStore_UploadThenResolve(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	target, err := s.IssueUploadTarget(ctx)
	require.NoError(t, err)
	require.Equal(t, "POST", target.Method)
	require.NotEmpty(t, target.Ref)

	// nothing uploaded yet
	u, err := s.URL(ctx, target.Ref)
	require.NoError(t, err)
	require.Nil(t, u)

	ref, err := s.Put(ctx, tokenOf(t, target), bytes.NewReader(pngHeader))
	require.NoError(t, err)
	require.Equal(t, target.Ref, ref)

	u, err = s.URL(ctx, ref)
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Equal(t, "http://localhost:8080/api/v1/storage/"+ref, *u)

	obj, err := s.Get(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, "image/png", obj.ContentType)
	require.Equal(t, pngHeader, obj.Data)
}

func TestLocalStore_TokenIsSingleUse(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	target, err := s.IssueUploadTarget(ctx)
	require.NoError(t, err)
	token := tokenOf(t, target)

	_, err = s.Put(ctx, token, strings.NewReader("first"))
	require.NoError(t, err)
	_, err = s.Put(ctx, token, strings.NewReader("second"))
	require.ErrorIs(t, err, ErrInvalidUploadToken)

	_, err = s.Put(ctx, "unknown", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrInvalidUploadToken)
}

func TestLocalStore_ExpiredToken(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	target, err := s.IssueUploadTarget(ctx)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = s.Put(ctx, tokenOf(t, target), strings.NewReader("late"))
	require.ErrorIs(t, err, ErrInvalidUploadToken)
}

func TestLocalStore_SizeLimit(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	target, err := s.IssueUploadTarget(ctx)
	require.NoError(t, err)
	token := tokenOf(t, target)

	_, err = s.Put(ctx, token, bytes.NewReader(make([]byte, 1025)))
	require.ErrorIs(t, err, ErrTooLarge)

	// a rejected body does not burn the token
	_, err = s.Put(ctx, token, bytes.NewReader(make([]byte, 1024)))
	require.NoError(t, err)
}

func TestLocalStore_UnknownRef(t *testing.T) {
	s := newLocal(t)

	obj, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, obj)
}
