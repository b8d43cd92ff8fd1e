package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/parley/internal/repository"
)

const uniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// View runs fn in a read-only repeatable read transaction so every query
// inside it observes the same snapshot.
func (s *Store) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	return pgx.BeginTxFunc(ctx, s.pool, opts, func(tx pgx.Tx) error {
		return fn(newTx(tx))
	})
}

// Update runs fn in a read committed transaction. Uniqueness is enforced by
// table constraints, which surface as repository.ErrDuplicate.
func (s *Store) Update(ctx context.Context, fn func(tx repository.Tx) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite}
	return pgx.BeginTxFunc(ctx, s.pool, opts, func(tx pgx.Tx) error {
		return fn(newTx(tx))
	})
}

type txRepos struct {
	channels *ChannelRepo
	messages *MessageRepo
	profiles *ProfileRepo
	accounts *AccountRepo
}

func newTx(q querier) *txRepos {
	return &txRepos{
		channels: NewChannelRepo(q),
		messages: NewMessageRepo(q),
		profiles: NewProfileRepo(q),
		accounts: NewAccountRepo(q),
	}
}

func (t *txRepos) Channels() repository.ChannelRepository { return t.channels }
func (t *txRepos) Messages() repository.MessageRepository { return t.messages }
func (t *txRepos) Profiles() repository.ProfileRepository { return t.profiles }
func (t *txRepos) Accounts() repository.AccountRepository { return t.accounts }

// mapError translates driver errors into repository errors.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
