package profiles

import "context"

// Repo persists whole profiles. Replace succeeds only when p.Version equals
// the stored version and bumps it by one.
type Repo interface {
	Load(ctx context.Context, userID string) (Profile, error)
	Replace(ctx context.Context, p Profile) error
}
