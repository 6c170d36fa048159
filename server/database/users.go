package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/existflow/weekplanner/internal/model"
)

var userColumns = []string{"id", "username", "email", "password_hash", "created_at"}

// CreateUser inserts an account
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (model.User, error) {
	query, args, err := s.sb.Insert("users").
		Columns("username", "email", "password_hash").
		Values(username, email, passwordHash).
		Suffix("RETURNING id, username, email, password_hash, created_at").
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	var u model.User
	if err := s.db.GetContext(ctx, &u, query, args...); err != nil {
		if isUniqueViolation(err) {
			return model.User{}, ErrUserExists
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *Store) userWhere(ctx context.Context, pred squirrel.Eq) (model.User, error) {
	query, args, err := s.sb.Select(userColumns...).From("users").Where(pred).ToSql()
	if err != nil {
		return model.User{}, err
	}

	var u model.User
	if err := s.db.GetContext(ctx, &u, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

// UserByUsername looks up an account by username
func (s *Store) UserByUsername(ctx context.Context, username string) (model.User, error) {
	return s.userWhere(ctx, squirrel.Eq{"username": username})
}

// UserByEmail looks up an account by email
func (s *Store) UserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.userWhere(ctx, squirrel.Eq{"email": email})
}

// UserByID looks up an account by id
func (s *Store) UserByID(ctx context.Context, id string) (model.User, error) {
	return s.userWhere(ctx, squirrel.Eq{"id": id})
}

// CreateSession stores a login token
func (s *Store) CreateSession(ctx context.Context, userID, token string, expiresAt time.Time) error {
	query, args, err := s.sb.Insert("sessions").
		Columns("user_id", "token", "expires_at").
		Values(userID, token, expiresAt).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// SessionByToken returns the session for token
func (s *Store) SessionByToken(ctx context.Context, token string) (model.Session, error) {
	query, args, err := s.sb.Select("id", "user_id", "token", "expires_at", "created_at").
		From("sessions").
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return model.Session{}, err
	}

	var sess model.Session
	if err := s.db.GetContext(ctx, &sess, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, model.ErrUnauthorized
		}
		return model.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

// DeleteSession ends one login
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	query, args, err := s.sb.Delete("sessions").Where(squirrel.Eq{"token": token}).ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

// CreateMagicLink stores a one-time token for email
func (s *Store) CreateMagicLink(ctx context.Context, email, token, purpose string, expiresAt time.Time) error {
	query, args, err := s.sb.Insert("magic_links").
		Columns("email", "token", "purpose", "expires_at").
		Values(email, token, purpose, expiresAt).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create magic link: %w", err)
	}
	return nil
}

// ConsumeMagicLink marks a link used and returns it. The link must match
// purpose, be unused and not expired.
func (s *Store) ConsumeMagicLink(ctx context.Context, token, purpose string) (model.MagicLink, error) {
	var link model.MagicLink

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := s.sb.Select("id", "email", "token", "purpose", "used", "expires_at", "created_at").
			From("magic_links").
			Where(squirrel.Eq{"token": token}).
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &link, query, args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrLinkInvalid
			}
			return err
		}

		switch {
		case link.Purpose != purpose:
			return ErrLinkInvalid
		case link.Used:
			return ErrLinkUsed
		case link.IsExpired():
			return ErrLinkExpired
		}

		query, args, err = s.sb.Update("magic_links").
			Set("used", true).
			Where(squirrel.Eq{"id": link.ID}).
			ToSql()
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return model.MagicLink{}, err
	}

	link.Used = true
	return link, nil
}

// ResetPassword sets a new hash and ends every session of the user
func (s *Store) ResetPassword(ctx context.Context, userID, passwordHash string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := s.sb.Update("users").
			Set("password_hash", passwordHash).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": userID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		query, args, err = s.sb.Delete("sessions").Where(squirrel.Eq{"user_id": userID}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to end sessions: %w", err)
		}
		return nil
	})
}
