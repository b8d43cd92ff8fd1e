package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/parley/internal/access"
	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/repository"
	"golang.org/x/crypto/argon2"
)

var (
	ErrEmailTaken   = errors.New("email already taken")
	ErrInvalidCreds = errors.New("invalid email or password")
)

// AuthService is the identity provider: it owns accounts and mints the
// tokens the access gate verifies.
type AuthService struct {
	store repository.Store
	gate  *access.Gate
	log   *slog.Logger
}

func NewAuthService(store repository.Store, gate *access.Gate, log *slog.Logger) *AuthService {
	return &AuthService{store: store, gate: gate, log: log}
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"max=64"`
	Password string `json:"password" validate:"required,min=8,password"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Account     *domain.Account `json:"account"`
	AccessToken string          `json:"access_token"`
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	account := &domain.Account{
		ID:           uuid.New(),
		Email:        normalizeEmail(input.Email),
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	err = s.store.Update(ctx, func(tx repository.Tx) error {
		existing, err := tx.Accounts().GetByEmail(ctx, account.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailTaken
		}
		return tx.Accounts().Create(ctx, account)
	})
	switch {
	case errors.Is(err, ErrEmailTaken), errors.Is(err, repository.ErrDuplicate):
		return nil, ErrEmailTaken
	case err != nil:
		return nil, fmt.Errorf("creating account: %w", err)
	}

	token, err := s.gate.Issue(account.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	s.log.Info("account registered", slog.String("user_id", account.ID.String()))
	return &AuthResponse{Account: account, AccessToken: token}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	var account *domain.Account
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		account, err = tx.Accounts().GetByEmail(ctx, normalizeEmail(input.Email))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("looking up account: %w", err)
	}
	if account == nil {
		return nil, ErrInvalidCreds
	}

	if !verifyPassword(input.Password, account.PasswordHash) {
		return nil, ErrInvalidCreds
	}

	token, err := s.gate.Issue(account.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{Account: account, AccessToken: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)

	return fmt.Sprintf("%s:%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyPassword(password, encoded string) bool {
	saltB64, hashB64, ok := strings.Cut(encoded, ":")
	if !ok {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(hashB64)
	if err != nil {
		return false
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(hash, expectedHash) == 1
}
