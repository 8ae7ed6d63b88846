package storage

import (
	"context"
	"fmt"
	"time"

	"financas/internal/core"
)

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (string, error) {
	id := newID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		id, u.Email, u.PasswordHash, r.stamp())
	if isUniqueViolation(err) {
		return "", fmt.Errorf("email %q: %w", u.Email, core.ErrConflict)
	}
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) getUser(ctx context.Context, where, key string) (core.User, error) {
	var (
		u  core.User
		at string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE `+where+` = ?`, key).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &at)
	if err != nil {
		return core.User{}, notFoundOr(err, "user", key)
	}
	u.CreatedAt = parseTime(at)
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	return r.getUser(ctx, "id", id)
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.getUser(ctx, "email", email)
}

// ReplaceSession drops every other session of the user and stores sess, in
// one transaction.
func (r *SQLiteRepository) ReplaceSession(ctx context.Context, sess core.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, sess.UserID); err != nil {
		return fmt.Errorf("delete old sessions: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (token_hash, user_id, expires_at) VALUES (?, ?, ?)`,
		sess.TokenHash, sess.UserID, sess.ExpiresAt.UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return tx.Commit()
}

func (r *SQLiteRepository) GetSession(ctx context.Context, tokenHash string) (core.Session, error) {
	var (
		s  core.Session
		at string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT token_hash, user_id, expires_at FROM sessions WHERE token_hash = ?`, tokenHash).
		Scan(&s.TokenHash, &s.UserID, &at)
	if err != nil {
		return core.Session{}, notFoundOr(err, "session", "")
	}
	s.ExpiresAt = parseTime(at)
	return s, nil
}

func (r *SQLiteRepository) ExtendSession(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	return r.exec(ctx, "extend session", "", `UPDATE sessions SET expires_at = ? WHERE token_hash = ?`,
		expiresAt.UTC().Format(timeLayout), tokenHash)
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, tokenHash string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, tokenHash); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
