// Package session holds atelier sessions in process memory. Nothing is
// persisted: a session lives until it is deleted, expires, or the process exits.
//
// A session's AnalysisResult is never mutated in place. Every change builds a
// new result and swaps it under the store lock, so readers never observe a
// half-applied update.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/fpang/vizu-atelier/internal/media"
	"github.com/fpang/vizu-atelier/internal/stylist"
)

// SessionTTL is the default idle lifetime of a session.
const SessionTTL = 24 * time.Hour

// ErrNotFound is returned for an unknown or expired session ID.
var ErrNotFound = errors.New("session not found")

// Session is a snapshot of one user's portrait and current analysis.
type Session struct {
	ID        string                 `json:"sessionId"`
	Image     media.Payload          `json:"-"`
	Result    stylist.AnalysisResult `json:"result"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// Store is a concurrency-safe in-memory session map.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session

	batches singleflight.Group
}

// NewStore creates a Store. A non-positive ttl uses SessionTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create stores a new session and returns its snapshot.
func (s *Store) Create(image media.Payload, result stylist.AnalysisResult) Session {
	now := s.now()
	sess := &Session{
		ID:        uuid.New().String(),
		Image:     image,
		Result:    result.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	count := len(s.sessions)
	s.mu.Unlock()

	log.Info().
		Str("session_id", sess.ID).
		Int("outfits", len(result.Outfits)).
		Int("active_sessions", count).
		Msg("Session created")
	return sess.snapshot()
}

// Get returns a snapshot of the session.
func (s *Store) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.lookup(id)
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess.snapshot(), nil
}

// Delete removes the session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	log.Info().Str("session_id", id).Msg("Session deleted")
	return nil
}

// Update replaces the session's result with fn's return value. fn receives
// a private copy and runs under the store lock, so it must not call back
// into the Store. If fn fails, the session is left unchanged.
func (s *Store) Update(id string, fn func(stylist.AnalysisResult) (stylist.AnalysisResult, error)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lookup(id)
	if !ok {
		return Session{}, ErrNotFound
	}
	next, err := fn(sess.Result.Clone())
	if err != nil {
		return sess.snapshot(), err
	}

	replaced := *sess
	replaced.Result = next
	replaced.UpdatedAt = s.now()
	s.sessions[id] = &replaced
	return replaced.snapshot(), nil
}

// ToggleFavorite flips the favorite flag of one outfit.
func (s *Store) ToggleFavorite(id string, index int) (Session, error) {
	return s.updateOutfit(id, index, func(o *stylist.OutfitSuggestion) {
		o.IsFavorite = !o.IsFavorite
	})
}

// SetNote replaces the free-text note of one outfit.
func (s *Store) SetNote(id string, index int, note string) (Session, error) {
	return s.updateOutfit(id, index, func(o *stylist.OutfitSuggestion) {
		o.UserNote = note
	})
}

// ApplyLook records a rendered look on the current outfit at index. Only
// the generated image and refinement are taken from look, so favorites and
// notes changed while the render was in flight are kept.
func (s *Store) ApplyLook(id string, index int, look stylist.OutfitSuggestion) (Session, error) {
	return s.updateOutfit(id, index, func(o *stylist.OutfitSuggestion) {
		o.GeneratedImage = look.GeneratedImage
		o.LastModificationPrompt = look.LastModificationPrompt
	})
}

// SetSkinTone applies a manual skin-tone override.
func (s *Store) SetSkinTone(id string, tone stylist.SkinTone) (Session, error) {
	return s.Update(id, func(r stylist.AnalysisResult) (stylist.AnalysisResult, error) {
		return stylist.ApplySkinTone(r, tone)
	})
}

func (s *Store) updateOutfit(id string, index int, mutate func(*stylist.OutfitSuggestion)) (Session, error) {
	return s.Update(id, func(r stylist.AnalysisResult) (stylist.AnalysisResult, error) {
		if index < 0 || index >= len(r.Outfits) {
			return r, &stylist.IndexError{Index: index, Len: len(r.Outfits)}
		}
		o := r.Outfits[index]
		mutate(&o)
		return r.WithOutfit(index, o)
	})
}

// RunBatch runs fn at most once at a time per session. A caller arriving
// while a batch is in flight waits for it and shares its outcome; shared
// reports whether that happened.
func (s *Store) RunBatch(ctx context.Context, id string, fn func(ctx context.Context, sess Session) error) (sess Session, shared bool, err error) {
	if _, err := s.Get(id); err != nil {
		return Session{}, false, err
	}

	_, err, shared = s.batches.Do(id, func() (any, error) {
		current, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		return nil, fn(ctx, current)
	})
	if err != nil {
		return Session{}, shared, err
	}
	sess, err = s.Get(id)
	return sess, shared, err
}

// Sweep deletes sessions idle longer than the TTL and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Int("active_sessions", len(s.sessions)).Msg("Expired sessions swept")
	}
	return removed
}

// Len returns the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// lookup must be called with mu held.
func (s *Store) lookup(id string) (*Session, bool) {
	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return nil, false
	}
	return sess, true
}

func (s *Store) expired(sess *Session) bool {
	return s.now().Sub(sess.UpdatedAt) > s.ttl
}

func (sess *Session) snapshot() Session {
	out := *sess
	out.Result = sess.Result.Clone()
	return out
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
