package navigation

import (
	"strings"
	"sync"

	"github.com/rentaldesk/rentaldesk/internal/events"
	"github.com/rentaldesk/rentaldesk/internal/roles"
)

// State holds the active tab of every role namespace for one page lifetime.
type State struct {
	mu     sync.Mutex
	active map[roles.Role]Tab
}

// NewState returns an empty state; every role starts on overview.
func NewState() *State {
	return &State{active: make(map[roles.Role]Tab)}
}

func (s *State) get(role roles.Role) Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tab, ok := s.active[role]; ok {
		return tab
	}
	return TabOverview
}

func (s *State) set(role roles.Role, tab Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[role] = tab
}

// Location is where the browser should be after a selection.
type Location struct {
	Path     string `json:"path"`
	Fragment string `json:"fragment"`
}

// String renders the location as path#fragment.
func (l Location) String() string {
	if l.Fragment == "" {
		return l.Path
	}
	return l.Path + "#" + l.Fragment
}

// Router applies tab selections and announces them on the bus.
type Router struct {
	publisher events.Publisher
}

// NewRouter constructs a Router. publisher may be nil.
func NewRouter(publisher events.Publisher) *Router {
	return &Router{publisher: publisher}
}

// Select makes tab active for role and returns the resulting location. An
// unknown tab is ignored: state is untouched and nothing is published.
func (r *Router) Select(state *State, role roles.Role, tab Tab, scope events.Scope, origin string) (Location, bool) {
	if !Known(role, tab) {
		return Location{}, false
	}
	state.set(role, tab)
	if r.publisher != nil {
		scope.Role = role
		r.publisher.Publish(events.Notification{
			Kind:   events.TabSelected,
			Scope:  scope,
			Origin: origin,
			Tab:    string(tab),
		})
	}
	return Location{Path: role.HomePath(), Fragment: string(tab)}, true
}

// Initial resolves the tab named by the location fragment at load time. A
// fragment that is empty or unknown for role yields overview. The result
// is stored as the active tab without publishing.
func (r *Router) Initial(state *State, role roles.Role, fragment string) Tab {
	tab := Tab(strings.TrimPrefix(strings.TrimSpace(fragment), "#"))
	if !Known(role, tab) {
		tab = TabOverview
	}
	state.set(role, tab)
	return tab
}

// Active returns the current tab of role, overview by default.
func (r *Router) Active(state *State, role roles.Role) Tab {
	return state.get(role)
}
