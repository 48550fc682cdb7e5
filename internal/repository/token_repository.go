package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo persists email verification tokens.  Only the SHA-256 hash of
// the raw token is stored.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreVerificationToken inserts a token hash row for email.
func (r *TokenRepo) StoreVerificationToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO verification_tokens (email, token_hash, expires_at) VALUES (?, ?, ?)`,
		normalizeEmail(email), tokenHash, expiresAt.UTC())
	return err
}

// ConsumeVerificationToken deletes the token if it exists and has not
// expired.  Expired rows for the email are removed as a side effect.
func (r *TokenRepo) ConsumeVerificationToken(ctx context.Context, email, tokenHash string, now time.Time) error {
	email = normalizeEmail(email)
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM verification_tokens WHERE email = ? AND token_hash = ? AND expires_at > ?`,
		email, tokenHash, now.UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	_, _ = r.DB.ExecContext(ctx,
		`DELETE FROM verification_tokens WHERE email = ? AND expires_at <= ?`, email, now.UTC())
	if n == 0 {
		return ErrTokenInvalid
	}
	return nil
}
