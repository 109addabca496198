package gallery

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// DefaultSessionTTL is used when the registry is created without a TTL.
const DefaultSessionTTL = 2 * time.Hour

// Registry maps browser session ids to gallery sessions and evicts the ones
// that have been idle for longer than the TTL.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time

	ticker  *time.Ticker
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewRegistry creates an empty registry.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the session for id, creating it on first use.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s := NewSession(nil)
	r.sessions[id] = s
	return s
}

// Lookup returns the session for id without creating one.
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove disposes and forgets the session for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Dispose()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// RefreshEvent installs photos in every session that has event open and
// returns how many were updated.
func (r *Registry) RefreshEvent(event Event, photos []Photo) int {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	n := 0
	for _, s := range sessions {
		if s.Refresh(event, photos) == nil {
			n++
		}
	}
	return n
}

// Sweep disposes every session idle for longer than the TTL and returns how
// many were evicted.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Dispose()
	}
	return len(expired)
}

// Start runs Sweep on the given interval until Stop is called.
func (r *Registry) Start(interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}
	r.stopCh = make(chan struct{})
	r.ticker = time.NewTicker(interval)
	r.running = true

	r.wg.Add(1)
	go func(ticker *time.Ticker, stop <-chan struct{}) {
		defer r.wg.Done()
		for {
			select {
			case <-ticker.C:
				if n := r.Sweep(); n > 0 {
					log.Infof("[Gallery] Evicted %d idle sessions", n)
				}
			case <-stop:
				return
			}
		}
	}(r.ticker, r.stopCh)
	log.Infof("[Gallery] Session sweeper started (ttl=%s)", r.ttl)
}

// Stop halts the sweeper and disposes all sessions.
func (r *Registry) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.ticker.Stop()
	close(r.stopCh)
	r.mu.Unlock()
	r.wg.Wait()

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Dispose()
	}
	log.Info("[Gallery] Session sweeper stopped")
}
