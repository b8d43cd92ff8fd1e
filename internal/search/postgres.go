package search

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/parley/internal/domain"
)

// PostgresEngine queries the generated content_tsv column of the messages
// table, so indexing happens with the insert itself.
type PostgresEngine struct {
	pool *pgxpool.Pool
}

func NewPostgresEngine(pool *pgxpool.Pool) *PostgresEngine {
	return &PostgresEngine{pool: pool}
}

func (e *PostgresEngine) Index(context.Context, domain.Message) error {
	return nil
}

func (e *PostgresEngine) Search(ctx context.Context, q Query) ([]uuid.UUID, error) {
	rows, err := e.pool.Query(ctx,
		`SELECT id FROM messages
		 WHERE content_tsv @@ websearch_to_tsquery('simple', $1)
		   AND ($2::uuid IS NULL OR channel_id = $2)
		 ORDER BY ts_rank(content_tsv, websearch_to_tsquery('simple', $1)) DESC, seq
		 LIMIT $3`,
		q.Text, q.ChannelID, limitOf(q),
	)
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}
	return ids, nil
}
