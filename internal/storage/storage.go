package storage

import (
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/quotedeck/quotedeck/internal/credential"
	"github.com/quotedeck/quotedeck/internal/models"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
)

// Session is the per-browser state. Values returned by the store are
// snapshots; mutate through the store methods.
type Session struct {
	ID        string
	Handle    *credential.Handle
	State     State
	Documents []*models.Document
	CreatedAt time.Time
}

// SessionStore keeps sessions in memory and drops them after ttl of inactivity
type SessionStore struct {
	cache *cache.Cache
	mu    sync.Mutex
}

func New(ttl time.Duration) *SessionStore {
	s := &SessionStore{
		cache: cache.New(ttl, cleanupInterval(ttl)),
	}
	s.cache.OnEvicted(s.evicted)
	return s
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if ttl < 2*time.Minute {
		return ttl
	}
	return ttl / 2
}

func (s *SessionStore) evicted(id string, v any) {
	sess, ok := v.(*Session)
	if !ok {
		return
	}

	s.mu.Lock()
	h := sess.Handle
	sess.Handle = nil
	sess.Documents = nil
	s.mu.Unlock()

	if err := h.Close(); err != nil {
		slog.Warn("Failed to close session credential", "session_id", id, "err", err)
	}
	slog.Debug("Session evicted", "session_id", id)
}

// lookup returns the live session and refreshes its expiry. Callers hold s.mu.
func (s *SessionStore) lookup(id string) (*Session, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess := v.(*Session)
	s.cache.SetDefault(id, sess)
	return sess, true
}

func (s *SessionStore) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lookup(id)
	if !ok {
		return Session{}, false
	}
	return sess.snapshot(), true
}

// Ensure returns the session for id, creating an idle one if needed
func (s *SessionStore) Ensure(id string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.lookup(id); ok {
		return sess.snapshot()
	}
	sess := &Session{ID: id, State: StateIdle, CreatedAt: time.Now()}
	s.cache.SetDefault(id, sess)
	return sess.snapshot()
}

// SetHandle installs h on the session, closing any handle it replaces. A nil
// h clears the credential. The handle of a session that is loading is in use
// and cannot be changed.
func (s *SessionStore) SetHandle(id string, h *credential.Handle) error {
	s.mu.Lock()
	sess, ok := s.lookup(id)
	if !ok {
		sess = &Session{ID: id, State: StateIdle, CreatedAt: time.Now()}
		s.cache.SetDefault(id, sess)
	}
	if sess.State == StateLoading {
		s.mu.Unlock()
		return models.ErrBusy
	}
	previous := sess.Handle
	sess.Handle = h
	s.mu.Unlock()

	if previous != nil && previous != h {
		if err := previous.Close(); err != nil {
			slog.Warn("Failed to close replaced credential", "session_id", id, "err", err)
		}
	}
	return nil
}

// Begin moves the session from idle to loading and returns its handle
func (s *SessionStore) Begin(id string) (*credential.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lookup(id)
	if !ok || sess.Handle == nil {
		return nil, models.ErrNoCredential
	}
	if sess.State == StateLoading {
		return nil, models.ErrBusy
	}
	sess.State = StateLoading
	return sess.Handle, nil
}

// Finish returns the session to idle
func (s *SessionStore) Finish(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.lookup(id); ok {
		sess.State = StateIdle
	}
}

// ClearDocuments drops every document produced earlier in the session
func (s *SessionStore) ClearDocuments(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.lookup(id); ok {
		sess.Documents = nil
	}
}

func (s *SessionStore) AddDocument(id string, doc *models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.lookup(id); ok {
		sess.Documents = append(sess.Documents, doc)
	}
}

func (s *SessionStore) Document(id, documentID string) (*models.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lookup(id)
	if !ok {
		return nil, false
	}
	for _, doc := range sess.Documents {
		if doc.ID == documentID {
			return doc, true
		}
	}
	return nil, false
}

// Delete removes the session and closes its handle
func (s *SessionStore) Delete(id string) {
	s.cache.Delete(id)
}

func (s *SessionStore) Count() int {
	return s.cache.ItemCount()
}

// Flush removes every session, closing their handles
func (s *SessionStore) Flush() {
	for id := range s.cache.Items() {
		s.cache.Delete(id)
	}
}

func (sess *Session) snapshot() Session {
	out := *sess
	out.Documents = append([]*models.Document(nil), sess.Documents...)
	return out
}
