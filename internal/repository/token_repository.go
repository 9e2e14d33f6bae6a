package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/identity-service/internal/model"
)

// TokenRepo persists refresh-token records. The token service is the only
// component that writes to this table; the signed token itself is never
// stored, only the row whose id the token embeds.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// CreateRefreshToken inserts a record and returns its id.
func (r *TokenRepo) CreateRefreshToken(ctx context.Context, userID uint64, expiresAt time.Time) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, expires_at) VALUES (?,?)",
		userID, expiresAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetRefreshToken loads a record by id, ErrNotFound when absent.
func (r *TokenRepo) GetRefreshToken(ctx context.Context, id uint64) (model.RefreshTokenRecord, error) {
	var rec model.RefreshTokenRecord
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, expires_at, created_at FROM refresh_tokens WHERE id=? LIMIT 1",
		id).Scan(&rec.ID, &rec.UserID, &rec.ExpiresAt, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return model.RefreshTokenRecord{}, ErrNotFound
	}
	return rec, err
}

// DeleteRefreshTokenIfExists deletes a record and reports whether a row
// was removed. The DELETE is a single guarded statement: when two rotations
// race on the same id, MySQL serializes them and only one sees an affected
// row.
func (r *TokenRepo) DeleteRefreshTokenIfExists(ctx context.Context, id uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE id=?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteRefreshTokensForUser removes every record owned by a user.
func (r *TokenRepo) DeleteRefreshTokensForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", userID)
	return err
}
