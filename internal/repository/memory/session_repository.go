package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"ai-editor-be/internal/session"
)

// SessionRepository holds the live editor sessions of this instance. A
// session idle for longer than the TTL is evicted and closed.
type SessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := cache.New(ttl, ttl/6)
	c.OnEvicted(func(_ string, v interface{}) {
		v.(*session.Session).Close()
	})
	return &SessionRepository{
		cache: c,
		ttl:   ttl,
	}
}

func (r *SessionRepository) Save(s *session.Session) {
	r.cache.Set(s.ID, s, cache.DefaultExpiration)
}

// Get returns a live session and extends its lifetime.
func (r *SessionRepository) Get(sessionID string) (*session.Session, bool) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	s := x.(*session.Session)
	r.cache.Set(sessionID, s, cache.DefaultExpiration)
	return s, true
}

// Delete removes and closes a session.
func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

// CloseAll closes every session, used on shutdown.
func (r *SessionRepository) CloseAll() {
	for id := range r.cache.Items() {
		r.cache.Delete(id)
	}
}
