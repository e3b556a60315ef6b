package drafts

import "context"

// Repo persists drafts. Put replaces any earlier draft with the same key.
type Repo interface {
	Put(ctx context.Context, d Draft) error
	Get(ctx context.Context, userID, key string) (Draft, error)
	Delete(ctx context.Context, userID, key string) error
}
