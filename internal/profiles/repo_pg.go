package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres. The version column is authoritative;
// the JSON blob's own version field is ignored on read.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Load(ctx context.Context, userID string) (Profile, error) {
	const query = `
SELECT data, version
FROM profiles
WHERE user_id = $1`
	var raw []byte
	var version int64
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&raw, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Empty(userID), nil
		}
		return Profile{}, err
	}
	p := decodeProfile(userID, raw)
	p.Version = version
	return p, nil
}

func (r *PGRepo) Replace(ctx context.Context, p Profile) error {
	next := p
	next.Version = p.Version + 1
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	now := time.Now().UTC()

	var res sql.Result
	if p.Version == 0 {
		// A version 0 row holds no committed write and is taken over.
		const insert = `
INSERT INTO profiles (user_id, data, version, updated_at)
VALUES ($1, $2, 1, $3)
ON CONFLICT (user_id) DO UPDATE
SET data = EXCLUDED.data, version = 1, updated_at = EXCLUDED.updated_at
WHERE profiles.version = 0`
		res, err = r.DB.ExecContext(ctx, insert, p.UserID, raw, now)
	} else {
		const update = `
UPDATE profiles
SET data = $1, version = version + 1, updated_at = $2
WHERE user_id = $3 AND version = $4`
		res, err = r.DB.ExecContext(ctx, update, raw, now, p.UserID, p.Version)
	}
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStaleProfile
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
