package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vedran77/parley/internal/domain"
)

type AccountRepo struct {
	db querier
}

func NewAccountRepo(db querier) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		account.ID, account.Email, account.Name, account.PasswordHash, account.CreatedAt,
	)
	return mapError(err)
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.scanAccount(ctx, "SELECT id, email, name, password_hash, created_at FROM accounts WHERE id = $1", id)
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.scanAccount(ctx, "SELECT id, email, name, password_hash, created_at FROM accounts WHERE email = $1", email)
}

func (r *AccountRepo) scanAccount(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var a domain.Account
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
