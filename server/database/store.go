// Package database is the Postgres record store behind the planner server.
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure
const uniqueViolation = "23505"

var (
	// ErrUserExists is returned when a username or email is taken
	ErrUserExists = errors.New("username or email already exists")
	// ErrLinkInvalid is returned for unknown or mismatched link tokens
	ErrLinkInvalid = errors.New("invalid token")
	// ErrLinkUsed is returned for a link that was already consumed
	ErrLinkUsed = errors.New("token already used")
	// ErrLinkExpired is returned for a link past its expiry
	ErrLinkExpired = errors.New("token expired")
)

// Store wraps the server database
type Store struct {
	db *sqlx.DB
	sb squirrel.StatementBuilderType
}

// Open connects to Postgres at url
func Open(url string) (*Store, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db), nil
}

// New wraps an existing connection
func New(db *sqlx.DB) *Store {
	return &Store{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// DB exposes the underlying connection
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction, rolling back when it fails
func (s *Store) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
