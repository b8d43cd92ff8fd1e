package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vedran77/parley/internal/domain"
)

const channelColumns = `id, seq, name, description, created_by, created_at`

type ChannelRepo struct {
	db querier
}

func NewChannelRepo(db querier) *ChannelRepo {
	return &ChannelRepo{db: db}
}

func (r *ChannelRepo) Create(ctx context.Context, ch *domain.Channel) error {
	query := `
		INSERT INTO channels (id, name, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq`
	err := r.db.QueryRow(ctx, query,
		ch.ID, ch.Name, ch.Description, ch.CreatedBy, ch.CreatedAt,
	).Scan(&ch.Seq)
	return mapError(err)
}

func (r *ChannelRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Channel, error) {
	return r.scanChannel(ctx, `SELECT `+channelColumns+` FROM channels WHERE id = $1`, id)
}

func (r *ChannelRepo) GetByName(ctx context.Context, name string) (*domain.Channel, error) {
	return r.scanChannel(ctx, `SELECT `+channelColumns+` FROM channels WHERE name = $1`, name)
}

func (r *ChannelRepo) List(ctx context.Context) ([]domain.Channel, error) {
	rows, err := r.db.Query(ctx, `SELECT `+channelColumns+` FROM channels ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	channels := []domain.Channel{}
	for rows.Next() {
		var ch domain.Channel
		if err := rows.Scan(&ch.ID, &ch.Seq, &ch.Name, &ch.Description, &ch.CreatedBy, &ch.CreatedAt); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

func (r *ChannelRepo) scanChannel(ctx context.Context, query string, arg any) (*domain.Channel, error) {
	var ch domain.Channel
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&ch.ID, &ch.Seq, &ch.Name, &ch.Description, &ch.CreatedBy, &ch.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}
