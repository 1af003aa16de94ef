// Package events carries dashboard notifications between the tab router,
// feature panels, the background worker and open browser pages.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rentaldesk/rentaldesk/internal/roles"
)

// Kind enumerates notification types.
type Kind uint8

const (
	// TabSelected is published when a menu entry is chosen. Tab holds the key.
	TabSelected Kind = iota + 1
	// RefreshAll asks every mounted panel of the scope to re-fetch.
	RefreshAll
	// EntityChanged follows a successful mutation. Entity holds the resource.
	EntityChanged
	// EventDue announces a rental event starting soon. Message is user facing.
	EventDue
)

var kindNames = map[Kind]string{
	TabSelected:   "tab_selected",
	RefreshAll:    "refresh_all",
	EntityChanged: "entity_changed",
	EventDue:      "event_due",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("events: unknown kind %d", uint8(k))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("events: unknown kind %q", text)
}

// Scope narrows a notification. Empty fields match every subscriber.
type Scope struct {
	Session string     `json:"session,omitempty"`
	Role    roles.Role `json:"role,omitempty"`
}

// Notification is one message on the bus.
type Notification struct {
	Kind    Kind      `json:"kind"`
	Scope   Scope     `json:"scope"`
	Origin  string    `json:"origin,omitempty"`
	Tab     string    `json:"tab,omitempty"`
	Entity  string    `json:"entity,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Encode renders the notification as JSON for the relay and SSE streams.
func (n Notification) Encode() ([]byte, error) {
	return json.Marshal(n)
}

// Decode parses a JSON notification.
func Decode(data []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return Notification{}, err
	}
	if _, ok := kindNames[n.Kind]; !ok {
		return Notification{}, fmt.Errorf("events: missing kind")
	}
	return n, nil
}

// Filter selects notifications for a subscriber.
type Filter struct {
	Session string
	Role    roles.Role
	// SkipOrigin drops notifications the subscriber itself caused.
	SkipOrigin string
	Kinds      []Kind
}

// Match reports whether n passes the filter. A notification scoped to a
// session or role only reaches subscribers that share it; a filter field
// left empty matches any scope.
func (f Filter) Match(n Notification) bool {
	if n.Scope.Session != "" && f.Session != "" && n.Scope.Session != f.Session {
		return false
	}
	if n.Scope.Role != "" && f.Role != "" && n.Scope.Role != f.Role {
		return false
	}
	if f.SkipOrigin != "" && n.Origin == f.SkipOrigin {
		return false
	}
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if k == n.Kind {
			return true
		}
	}
	return false
}
