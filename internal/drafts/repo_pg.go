package drafts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"letterhead-backend/internal/shared/telemetry"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Put upserts the draft for (user, key).
func (r *PGRepo) Put(ctx context.Context, d Draft) error {
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	const query = `
INSERT INTO drafts (user_id, draft_key, data, saved_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, draft_key)
DO UPDATE SET data = EXCLUDED.data, saved_at = EXCLUDED.saved_at`
	_, err = r.DB.ExecContext(ctx, query, d.UserID, d.Key, raw, d.SavedAt)
	return err
}

// Get returns the draft for (user, key). An undecodable row reads as missing.
func (r *PGRepo) Get(ctx context.Context, userID, key string) (Draft, error) {
	const query = `
SELECT data, saved_at
FROM drafts
WHERE user_id = $1 AND draft_key = $2`
	d := Draft{UserID: userID, Key: key}
	var raw []byte
	err := r.DB.QueryRowContext(ctx, query, userID, key).Scan(&raw, &d.SavedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Draft{}, ErrNotFound
		}
		return Draft{}, err
	}
	if err := json.Unmarshal(raw, &d.Data); err != nil {
		telemetry.Warn("drafts.decode_failed", map[string]any{"user_id": userID, "key": key, "err": err})
		return Draft{}, ErrNotFound
	}
	return d, nil
}

// Delete removes the draft for (user, key) if present.
func (r *PGRepo) Delete(ctx context.Context, userID, key string) error {
	const query = `DELETE FROM drafts WHERE user_id = $1 AND draft_key = $2`
	_, err := r.DB.ExecContext(ctx, query, userID, key)
	return err
}

var _ Repo = (*PGRepo)(nil)
