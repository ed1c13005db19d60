package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/concerto/internal/metrics"
	"github.com/verte-zerg/concerto/internal/session"
)

const sessionCookie = "concerto_session"

// entry is one browser's session. Its mutex serializes that browser's requests.
type entry struct {
	mu       sync.Mutex
	session  *session.Session
	notice   session.Notice
	lastSeen time.Time
}

// flash stores a notice for the next rendered page.
func (e *entry) flash(n session.Notice) {
	e.notice = n
}

// takeNotice returns and clears the pending notice.
func (e *entry) takeNotice() session.Notice {
	n := e.notice
	e.notice = session.Notice{}
	return n
}

type registry struct {
	mu      sync.Mutex
	deps    session.Deps
	entries map[string]*entry
	idle    time.Duration
	now     func() time.Time
}

func newRegistry(deps session.Deps, idle time.Duration) *registry {
	return &registry{
		deps:    deps,
		entries: make(map[string]*entry),
		idle:    idle,
		now:     time.Now,
	}
}

// acquire returns the locked entry for the request's cookie, creating one
// (and setting the cookie) when the cookie is missing or unknown.
// Callers must unlock the entry.
func (r *registry) acquire(w http.ResponseWriter, req *http.Request) *entry {
	r.mu.Lock()
	r.expireLocked()

	var e *entry
	if c, err := req.Cookie(sessionCookie); err == nil {
		e = r.entries[c.Value]
	}
	if e == nil {
		id := uuid.NewString()
		e = &entry{session: session.New(r.deps)}
		r.entries[id] = e
		metrics.ActiveSessions.Set(float64(len(r.entries)))
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	e.lastSeen = r.now()
	r.mu.Unlock()

	e.mu.Lock()
	return e
}

// expireLocked drops entries idle for longer than the idle timeout.
func (r *registry) expireLocked() {
	if r.idle <= 0 {
		return
	}
	cutoff := r.now().Add(-r.idle)
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.entries)))
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
