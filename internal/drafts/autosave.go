package drafts

import (
	"context"
	"sync"
	"time"

	"letterhead-backend/internal/profiles"
	"letterhead-backend/internal/shared/metrics"
	"letterhead-backend/internal/shared/telemetry"
)

const (
	DefaultDelay = 5 * time.Second
	saveTimeout  = 10 * time.Second
)

type draftID struct {
	userID string
	key    string
}

type pendingDraft struct {
	timer *time.Timer
	data  profiles.DocumentData
	gen   uint64
}

// Autosaver debounces draft writes per (user, key). Every Touch restarts the
// timer; when it fires the latest snapshot replaces the stored draft.
//
// Each Touch and Discard takes a new generation for its key. Repo writes run
// one at a time and a save whose generation is no longer the key's latest is
// dropped, so a slow save never lands on top of newer data or a deletion.
type Autosaver struct {
	Repo  Repo
	Delay time.Duration
	Now   func() time.Time

	mu      sync.Mutex
	pending map[draftID]*pendingDraft
	latest  map[draftID]uint64
	seq     uint64
	closed  bool

	saveMu sync.Mutex
}

// NewAutosaver constructs an Autosaver. A non-positive delay uses DefaultDelay.
func NewAutosaver(repo Repo, delay time.Duration) *Autosaver {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Autosaver{
		Repo:    repo,
		Delay:   delay,
		Now:     func() time.Time { return time.Now().UTC() },
		pending: make(map[draftID]*pendingDraft),
		latest:  make(map[draftID]uint64),
	}
}

// Touch schedules data to be saved after the delay, cancelling any earlier
// schedule for the same key. Documents with neither title nor content are
// not saved; Touch reports whether a save was scheduled.
func (a *Autosaver) Touch(userID, key string, data profiles.DocumentData) bool {
	id := draftID{userID: userID, key: key}

	a.mu.Lock()
	defer a.mu.Unlock()
	if prev, ok := a.pending[id]; ok {
		prev.timer.Stop()
		delete(a.pending, id)
	}
	gen := a.nextGenLocked(id)
	if a.closed || (data.Title == "" && data.Content == "") {
		return false
	}

	p := &pendingDraft{data: data, gen: gen}
	p.timer = time.AfterFunc(a.Delay, func() { a.fire(id, p) })
	a.pending[id] = p
	return true
}

func (a *Autosaver) fire(id draftID, p *pendingDraft) {
	a.mu.Lock()
	if a.pending[id] != p {
		a.mu.Unlock()
		return
	}
	delete(a.pending, id)
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	_ = a.save(ctx, id, p.data, p.gen)
}

func (a *Autosaver) nextGenLocked(id draftID) uint64 {
	a.seq++
	a.latest[id] = a.seq
	return a.seq
}

// current reports whether gen is still the newest for id.
func (a *Autosaver) current(id draftID, gen uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest[id] == gen
}

func (a *Autosaver) retire(id draftID, gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.latest[id] == gen {
		delete(a.latest, id)
	}
}

func (a *Autosaver) save(ctx context.Context, id draftID, data profiles.DocumentData, gen uint64) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	if !a.current(id, gen) {
		return nil
	}

	err := a.Repo.Put(ctx, Draft{UserID: id.userID, Key: id.key, Data: data, SavedAt: a.Now()})
	if err != nil {
		telemetry.Warn("drafts.save_failed", map[string]any{"user_id": id.userID, "key": id.key, "err": err})
		return err
	}
	a.retire(id, gen)
	metrics.IncDraftSaved()
	return nil
}

// Discard cancels any scheduled save for the key and deletes the stored
// draft. Saves already in flight are dropped or finish before the delete.
func (a *Autosaver) Discard(ctx context.Context, userID, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	id := draftID{userID: userID, key: key}

	a.mu.Lock()
	if prev, ok := a.pending[id]; ok {
		prev.timer.Stop()
		delete(a.pending, id)
	}
	gen := a.nextGenLocked(id)
	a.mu.Unlock()

	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	defer a.retire(id, gen)
	return a.Repo.Delete(ctx, userID, key)
}

// Pending reports how many saves are scheduled.
func (a *Autosaver) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Flush saves every scheduled draft now.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	batch := make(map[draftID]*pendingDraft, len(a.pending))
	for id, p := range a.pending {
		p.timer.Stop()
		batch[id] = p
	}
	a.pending = make(map[draftID]*pendingDraft)
	a.mu.Unlock()

	var firstErr error
	for id, p := range batch {
		if err := a.save(ctx, id, p.data, p.gen); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close stops accepting new drafts and flushes the pending ones.
func (a *Autosaver) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return a.Flush(ctx)
}
