package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vedran77/parley/internal/domain"
)

const messageColumns = `id, seq, channel_id, author_id, content, created_at`

type MessageRepo struct {
	db querier
}

func NewMessageRepo(db querier) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, channel_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq`
	err := r.db.QueryRow(ctx, query,
		msg.ID, msg.ChannelID, msg.AuthorID, msg.Content, msg.CreatedAt,
	).Scan(&msg.Seq)
	return mapError(err)
}

func (r *MessageRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Message, error) {
	if len(ids) == 0 {
		return []domain.Message{}, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	found, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]domain.Message, len(found))
	for _, msg := range found {
		byID[msg.ID] = msg
	}
	messages := make([]domain.Message, 0, len(found))
	for _, id := range ids {
		if msg, ok := byID[id]; ok {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

func (r *MessageRepo) ListByChannel(ctx context.Context, channelID uuid.UUID) ([]domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE channel_id = $1 ORDER BY seq`
	rows, err := r.db.Query(ctx, query, channelID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *MessageRepo) Scan(ctx context.Context, fn func(domain.Message) error) error {
	rows, err := r.db.Query(ctx, `SELECT `+messageColumns+` FROM messages ORDER BY seq`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return err
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
	return rows.Err()
}

func collectMessages(rows pgx.Rows) ([]domain.Message, error) {
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func scanMessage(rows pgx.Rows) (domain.Message, error) {
	var msg domain.Message
	err := rows.Scan(&msg.ID, &msg.Seq, &msg.ChannelID, &msg.AuthorID, &msg.Content, &msg.CreatedAt)
	return msg, err
}
