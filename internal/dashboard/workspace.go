// Package dashboard serves the role dashboards: the shell page, tab
// selection, the active panel and the notification stream.
package dashboard

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rentaldesk/rentaldesk/internal/feature"
	"github.com/rentaldesk/rentaldesk/internal/navigation"
	"github.com/rentaldesk/rentaldesk/internal/roles"
)

// Workspace is the page-lifetime state of one role dashboard in one
// session: the navigation state and the mounted panel.
type Workspace struct {
	mu    sync.Mutex
	Role  roles.Role
	Nav   *navigation.State
	panel feature.Panel
}

func newWorkspace(role roles.Role) *Workspace {
	return &Workspace{Role: role, Nav: navigation.NewState()}
}

// Panel returns the mounted panel, if any.
func (w *Workspace) Panel() feature.Panel {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.panel
}

// swap installs p and returns the panel it replaced. Passing nil unmounts.
func (w *Workspace) swap(p feature.Panel) feature.Panel {
	w.mu.Lock()
	defer w.mu.Unlock()
	old := w.panel
	w.panel = p
	return old
}

// Store keeps workspaces in a size-bounded LRU whose entries expire after
// a period of inactivity.
type Store struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *Workspace]
	gauge func(int)
}

// NewStore constructs a Store. gauge, when set, receives the entry count
// after every change.
func NewStore(capacity int, ttl time.Duration, gauge func(int)) *Store {
	if capacity <= 0 {
		capacity = 1024
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	// No eviction callback: it would run under the cache lock.
	return &Store{
		cache: expirable.NewLRU[string, *Workspace](capacity, nil, ttl),
		gauge: gauge,
	}
}

func key(session string, role roles.Role) string {
	return session + "|" + string(role)
}

// Get returns the workspace for (session, role), creating it when absent.
func (s *Store) Get(session string, role roles.Role) *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(session, role)
	if ws, ok := s.cache.Get(k); ok {
		// Re-add to slide the expiry window.
		s.cache.Add(k, ws)
		return ws
	}
	ws := newWorkspace(role)
	s.cache.Add(k, ws)
	s.report()
	return ws
}

// Reset starts a new page lifetime for (session, role).
func (s *Store) Reset(session string, role roles.Role) *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws := newWorkspace(role)
	s.cache.Add(key(session, role), ws)
	s.report()
	return ws
}

// Drop removes every workspace of session, used at logout.
func (s *Store) Drop(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, role := range roles.All {
		s.cache.Remove(key(session, role))
	}
	s.report()
}

// Len is the number of live workspaces.
func (s *Store) Len() int {
	return s.cache.Len()
}

func (s *Store) report() {
	if s.gauge != nil {
		s.gauge(s.cache.Len())
	}
}
