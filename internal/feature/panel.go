// Package feature implements the entity panels shown inside a dashboard: a
// list fetched from the backend plus the create, update, delete, approve and
// reject actions that change it.
package feature

import (
	"context"
	"net/url"

	"github.com/rentaldesk/rentaldesk/internal/events"
	"github.com/rentaldesk/rentaldesk/internal/navigation"
	"github.com/rentaldesk/rentaldesk/internal/records"
	"github.com/rentaldesk/rentaldesk/internal/shared"
)

// Action names a mutation a panel can perform.
type Action string

// Supported actions.
const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ParseAction validates a URL segment.
func ParseAction(raw string) (Action, bool) {
	switch a := Action(raw); a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionApprove, ActionReject:
		return a, true
	}
	return "", false
}

// NeedsID reports whether the action targets an existing record.
func (a Action) NeedsID() bool { return a != ActionCreate }

// Capabilities gates the actions a panel offers.
type Capabilities struct {
	Create  bool
	Update  bool
	Delete  bool
	Approve bool
}

// Allows reports whether a is enabled.
func (c Capabilities) Allows(a Action) bool {
	switch a {
	case ActionCreate:
		return c.Create
	case ActionUpdate:
		return c.Update
	case ActionDelete:
		return c.Delete
	case ActionApprove, ActionReject:
		return c.Approve
	}
	return false
}

// Actor identifies who triggered an action, for notifications.
type Actor struct {
	Scope  events.Scope
	Origin string
}

// Row is one rendered record.
type Row struct {
	ID       string
	Cells    []string
	Approval string
	Values   map[string]string
}

// Stat is one overview figure.
type Stat struct {
	Label string
	Value string
}

// Snapshot is the template-facing state of a panel.
type Snapshot struct {
	Kind        string
	Tab         navigation.Tab
	Title       string
	Entity      string
	Columns     []string
	Rows        []Row
	Fields      []records.Field
	Caps        Capabilities
	Loaded      bool
	Notice      *shared.FlashMessage
	FieldErrors map[string]string
	Draft       map[string]string
	Stats       []Stat
	Workflow    []string
}

// Panel is a mounted tab body.
type Panel interface {
	Tab() navigation.Tab
	Entity() string
	// Mount performs the initial fetch.
	Mount(ctx context.Context)
	// Refresh re-fetches without clearing the notice.
	Refresh(ctx context.Context)
	// Perform runs one action with the submitted form.
	Perform(ctx context.Context, actor Actor, action Action, id string, form url.Values)
	Snapshot() Snapshot
}
