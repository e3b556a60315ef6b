package wizard

import (
	"sync"
	"time"

	"letterhead-backend/internal/profiles"
	"letterhead-backend/internal/templates"
)

// Session is one user's wizard state: the current step plus the selections
// and document being edited.
type Session struct {
	UserID       string                `json:"userId"`
	Step         Step                  `json:"step"`
	LetterheadID string                `json:"letterheadId,omitempty"`
	Template     *templates.Template   `json:"template,omitempty"`
	Document     profiles.DocumentData `json:"document"`
	// DocumentID is set when the document was loaded from or saved to the
	// profile, so later saves overwrite it.
	DocumentID string    `json:"documentId,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func newSession(userID string, now time.Time) *Session {
	return &Session{
		UserID:    userID,
		Step:      StepLetterhead,
		Document:  profiles.DocumentData{Date: now.Format(time.DateOnly), BodyFormat: profiles.BodyPlain},
		UpdatedAt: now,
	}
}

func (s *Session) clone() Session {
	out := *s
	if s.Template != nil {
		t := *s.Template
		out.Template = &t
	}
	if s.Document.Signature != nil {
		sig := *s.Document.Signature
		if sig.Image != nil {
			img := *sig.Image
			sig.Image = &img
		}
		out.Document.Signature = &sig
	}
	return out
}

// SessionStore keeps wizard sessions in memory. Sessions are created on first
// access and dropped once idle for ttl; a ttl of zero keeps them forever.
type SessionStore struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewSessionStore constructs an empty SessionStore.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session), ttl: ttl, now: time.Now}
}

// Get returns a copy of the user's session.
func (s *SessionStore) Get(userID string) Session {
	var out Session
	_ = s.Update(userID, func(*Session) error { return nil }, &out)
	return out
}

// Update runs fn on the live session under the store lock. When fn fails the
// session is left as it was. The resulting state is copied into out when out
// is non-nil.
func (s *SessionStore) Update(userID string, fn func(*Session) error, out *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)
	sess, ok := s.sessions[userID]
	if !ok || s.expired(sess, now) {
		sess = newSession(userID, now)
		s.sessions[userID] = sess
	}
	work := sess.clone()
	if err := fn(&work); err != nil {
		if out != nil {
			*out = sess.clone()
		}
		return err
	}
	work.UpdatedAt = s.now()
	*sess = work
	if out != nil {
		*out = sess.clone()
	}
	return nil
}

func (s *SessionStore) expired(sess *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.UpdatedAt) >= s.ttl
}

func (s *SessionStore) sweepLocked(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.lastSweep = now
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
		}
	}
}

// Len reports the number of sessions held.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
