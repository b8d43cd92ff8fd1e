package blob

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
)

var (
	ErrInvalidUploadToken = errors.New("upload token is invalid or expired")
	ErrTooLarge           = errors.New("upload exceeds size limit")
)

const (
	uploadPrefix = "upload:"
	objectPrefix = "blob:"
)

type uploadTicket struct {
	Ref       string    `cbor:"1,keyasint"`
	ExpiresAt time.Time `cbor:"2,keyasint"`
}

type Object struct {
	ContentType string    `cbor:"1,keyasint"`
	Size        int64     `cbor:"2,keyasint"`
	CreatedAt   time.Time `cbor:"3,keyasint"`
	Data        []byte    `cbor:"4,keyasint"`
}

// LocalStore keeps blobs in badger and is served by this process under
// baseURL: uploads go to baseURL/upload/{token}, downloads to baseURL/{ref}.
// Upload tokens are single use and expire with the badger entry TTL.
type LocalStore struct {
	db       *badger.DB
	baseURL  string
	ttl      time.Duration
	maxBytes int64
	now      func() time.Time
}

type LocalOptions struct {
	BaseURL   string
	UploadTTL time.Duration
	MaxBytes  int64
}

func OpenLocal(path string, opts LocalOptions) (*LocalStore, error) {
	return openLocal(badger.DefaultOptions(path), opts)
}

func NewMemoryLocal(opts LocalOptions) (*LocalStore, error) {
	return openLocal(badger.DefaultOptions("").WithInMemory(true), opts)
}

func openLocal(bopts badger.Options, opts LocalOptions) (*LocalStore, error) {
	db, err := badger.Open(bopts.WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("opening blob store: %w", err)
	}
	return &LocalStore{
		db:       db,
		baseURL:  opts.BaseURL,
		ttl:      opts.UploadTTL,
		maxBytes: opts.MaxBytes,
		now:      time.Now,
	}, nil
}

func (s *LocalStore) Close() error {
	return s.db.Close()
}

func (s *LocalStore) IssueUploadTarget(_ context.Context) (UploadTarget, error) {
	token, err := newToken()
	if err != nil {
		return UploadTarget{}, err
	}
	ticket := uploadTicket{Ref: ulid.Make().String(), ExpiresAt: s.now().Add(s.ttl)}

	data, err := cbor.Marshal(ticket)
	if err != nil {
		return UploadTarget{}, fmt.Errorf("encoding upload ticket: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(uploadPrefix+token), data).WithTTL(s.ttl))
	})
	if err != nil {
		return UploadTarget{}, fmt.Errorf("storing upload ticket: %w", err)
	}

	return UploadTarget{
		URL:       s.baseURL + "/upload/" + url.PathEscape(token),
		Method:    "POST",
		Ref:       ticket.Ref,
		ExpiresAt: ticket.ExpiresAt,
	}, nil
}

// Put consumes the upload token and stores body under the ref it was issued
// for.
func (s *LocalStore) Put(_ context.Context, token string, body io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	var ticket uploadTicket
	err = s.db.Update(func(txn *badger.Txn) error {
		key := []byte(uploadPrefix + token)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrInvalidUploadToken
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &ticket)
		}); err != nil {
			return fmt.Errorf("decoding upload ticket: %w", err)
		}
		if !s.now().Before(ticket.ExpiresAt) {
			return ErrInvalidUploadToken
		}

		obj, err := cbor.Marshal(Object{
			ContentType: mimetype.Detect(data).String(),
			Size:        int64(len(data)),
			CreatedAt:   s.now(),
			Data:        data,
		})
		if err != nil {
			return fmt.Errorf("encoding blob: %w", err)
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Set([]byte(objectPrefix+ticket.Ref), obj)
	})
	if err != nil {
		return "", err
	}
	return ticket.Ref, nil
}

// Get returns the stored object or nil when ref is unknown.
func (s *LocalStore) Get(_ context.Context, ref string) (*Object, error) {
	var obj *Object
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(objectPrefix + ref))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			obj = &Object{}
			return cbor.Unmarshal(val, obj)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", ref, err)
	}
	return obj, nil
}

func (s *LocalStore) URL(_ context.Context, ref string) (*string, error) {
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(objectPrefix + ref))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("looking up blob %s: %w", ref, err)
	}
	if !found {
		return nil, nil
	}
	u := s.baseURL + "/" + url.PathEscape(ref)
	return &u, nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating upload token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
