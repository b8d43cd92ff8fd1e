package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vedran77/parley/internal/domain"
)

type ProfileRepo struct {
	db querier
}

func NewProfileRepo(db querier) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	query := `SELECT user_id, display_name, avatar_ref, updated_at FROM profiles WHERE user_id = $1`
	var p domain.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.DisplayName, &p.AvatarRef, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert writes the single profile row of p.UserID, overwriting display
// name and avatar when it already exists.
func (r *ProfileRepo) Upsert(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (user_id, display_name, avatar_ref, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
			avatar_ref = EXCLUDED.avatar_ref,
			updated_at = EXCLUDED.updated_at`
	_, err := r.db.Exec(ctx, query, p.UserID, p.DisplayName, p.AvatarRef, p.UpdatedAt)
	return mapError(err)
}
