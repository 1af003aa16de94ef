package feature

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/rentaldesk/rentaldesk/internal/backend"
	"github.com/rentaldesk/rentaldesk/internal/events"
	"github.com/rentaldesk/rentaldesk/internal/navigation"
	"github.com/rentaldesk/rentaldesk/internal/records"
	"github.com/rentaldesk/rentaldesk/internal/shared"
)

// Source is the backend collection behind a module.
// *backend.Resource satisfies it.
type Source[T any] interface {
	Name() string
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, payload any) error
	Update(ctx context.Context, id string, payload any) error
	Delete(ctx context.Context, id string) error
	Approve(ctx context.Context, id string) error
	Reject(ctx context.Context, id string) error
}

// Binder turns a submitted form into a request payload.
type Binder func(values url.Values, create bool) (any, error)

// Definition describes one entity panel.
type Definition struct {
	Tab      navigation.Tab
	Title    string
	Noun     string
	Columns  []string
	Fields   []records.Field
	Bind     Binder
	Caps     Capabilities
	Workflow []string
}

// View is the state of a module for one page lifetime. The fetch runs
// under the module lock, so no caller observes it in flight; the page shows
// its loading state through the deferred panel placeholder instead.
type View[T records.Record] struct {
	Items       []T
	Loaded      bool
	Notice      *shared.FlashMessage
	FieldErrors map[string]string
	// Draft keeps a rejected create form so it can be corrected.
	Draft map[string]string
}

// Module is a generic entity panel.
type Module[T records.Record] struct {
	def       Definition
	source    Source[T]
	publisher events.Publisher
	logger    *slog.Logger

	mu   sync.Mutex
	view View[T]
}

// NewModule constructs an unmounted module.
func NewModule[T records.Record](def Definition, source Source[T], publisher events.Publisher, logger *slog.Logger) *Module[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Module[T]{def: def, source: source, publisher: publisher, logger: logger}
}

func (m *Module[T]) Tab() navigation.Tab { return m.def.Tab }

func (m *Module[T]) Entity() string { return m.source.Name() }

// View returns a copy of the current state.
func (m *Module[T]) View() View[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.view
	v.Items = append([]T(nil), m.view.Items...)
	return v
}

// Mount issues the initial fetch. Without a token nothing is requested and
// no notice is shown.
func (m *Module[T]) Mount(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = View[T]{}
	m.load(ctx, true)
}

// Refresh re-fetches the collection.
func (m *Module[T]) Refresh(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.load(ctx, true)
}

// load fetches the collection. With replace set a failure empties the list
// and sets an error notice; otherwise the previous items survive.
func (m *Module[T]) load(ctx context.Context, replace bool) {
	if backend.TokenFromContext(ctx) == "" {
		return
	}
	items, err := m.source.List(ctx)
	if err != nil {
		if errors.Is(err, backend.ErrNoToken) {
			return
		}
		m.logger.Warn("feature: list failed", slog.String("entity", m.source.Name()), slog.Any("error", err))
		if replace {
			m.view.Items = nil
			m.view.Loaded = true
			m.view.Notice = errorNotice(err, "load "+m.plural())
			return
		}
		m.view.Notice = &shared.FlashMessage{
			Kind:    "warning",
			Message: fmt.Sprintf("%s, but the list could not be reloaded.", strings.TrimSuffix(m.view.Notice.Message, ".")),
		}
		return
	}
	m.view.Items = items
	m.view.Loaded = true
}

// Perform runs an action. Success sets a confirmation, re-fetches once and
// announces the change; failure sets an error notice and keeps the list.
func (m *Module[T]) Perform(ctx context.Context, actor Actor, action Action, id string, form url.Values) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view.FieldErrors = nil
	m.view.Draft = nil

	if !m.def.Caps.Allows(action) {
		m.view.Notice = &shared.FlashMessage{Kind: "error", Message: fmt.Sprintf("%s cannot be %s here.", m.title(), pastTense(action))}
		return
	}
	if action.NeedsID() && strings.TrimSpace(id) == "" {
		m.view.Notice = &shared.FlashMessage{Kind: "error", Message: fmt.Sprintf("No %s selected.", m.def.Noun)}
		return
	}

	var payload any
	if action == ActionCreate || action == ActionUpdate {
		bound, err := m.def.Bind(form, action == ActionCreate)
		if err != nil {
			var formErr *records.FormError
			if errors.As(err, &formErr) {
				m.view.FieldErrors = formErr.Fields
			}
			if action == ActionCreate {
				m.view.Draft = flatten(form)
			}
			m.view.Notice = &shared.FlashMessage{Kind: "error", Message: err.Error()}
			return
		}
		payload = bound
	}

	if err := m.dispatch(ctx, action, id, payload); err != nil {
		m.logger.Warn("feature: action failed",
			slog.String("entity", m.source.Name()),
			slog.String("action", string(action)),
			slog.String("id", id),
			slog.Any("error", err))
		if errors.Is(err, backend.ErrNoToken) {
			m.view.Notice = &shared.FlashMessage{Kind: "error", Message: "Your session has expired. Please sign in again."}
			return
		}
		m.view.Notice = errorNotice(err, string(action)+" "+m.def.Noun)
		if action == ActionCreate {
			m.view.Draft = flatten(form)
		}
		return
	}

	m.view.Notice = &shared.FlashMessage{Kind: "success", Message: fmt.Sprintf("%s %s successfully.", m.title(), pastTense(action))}
	m.load(ctx, false)
	if m.publisher != nil {
		m.publisher.Publish(events.Notification{
			Kind:   events.EntityChanged,
			Scope:  actor.Scope,
			Origin: actor.Origin,
			Entity: m.source.Name(),
			Tab:    string(m.def.Tab),
		})
	}
}

func (m *Module[T]) dispatch(ctx context.Context, action Action, id string, payload any) error {
	switch action {
	case ActionCreate:
		return m.source.Create(ctx, payload)
	case ActionUpdate:
		return m.source.Update(ctx, id, payload)
	case ActionDelete:
		return m.source.Delete(ctx, id)
	case ActionApprove:
		return m.source.Approve(ctx, id)
	case ActionReject:
		return m.source.Reject(ctx, id)
	}
	return fmt.Errorf("feature: unknown action %q", action)
}

// Snapshot renders the module for templates.
func (m *Module[T]) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make([]Row, 0, len(m.view.Items))
	for _, item := range m.view.Items {
		row := Row{ID: item.Key(), Cells: item.Cells(), Values: item.FormValues()}
		if a, ok := any(item).(records.Approvable); ok {
			row.Approval = a.Approval()
		}
		rows = append(rows, row)
	}
	return Snapshot{
		Kind:        "table",
		Tab:         m.def.Tab,
		Title:       m.def.Title,
		Entity:      m.source.Name(),
		Columns:     m.def.Columns,
		Rows:        rows,
		Fields:      m.def.Fields,
		Caps:        m.def.Caps,
		Loaded:      m.view.Loaded,
		Notice:      m.view.Notice,
		FieldErrors: m.view.FieldErrors,
		Draft:       m.view.Draft,
		Workflow:    m.def.Workflow,
	}
}

func (m *Module[T]) title() string {
	if m.def.Noun == "" {
		return "Record"
	}
	return strings.ToUpper(m.def.Noun[:1]) + m.def.Noun[1:]
}

func (m *Module[T]) plural() string {
	return strings.ToLower(m.def.Title)
}

// errorNotice prefers the backend's own message, then a network hint, then
// a generic failure naming the attempted operation.
func errorNotice(err error, operation string) *shared.FlashMessage {
	if msg := backend.MessageOf(err); msg != "" {
		return &shared.FlashMessage{Kind: "error", Message: msg}
	}
	if backend.IsTransport(err) {
		return &shared.FlashMessage{Kind: "error", Message: "Network error while trying to " + operation + "."}
	}
	return &shared.FlashMessage{Kind: "error", Message: "Failed to " + operation + "."}
}

func flatten(form url.Values) map[string]string {
	out := make(map[string]string, len(form))
	for k := range form {
		if k == "password" || k == shared.CSRFFormField {
			continue
		}
		out[k] = form.Get(k)
	}
	return out
}

func pastTense(a Action) string {
	switch a {
	case ActionCreate:
		return "created"
	case ActionUpdate:
		return "updated"
	case ActionDelete:
		return "deleted"
	case ActionApprove:
		return "approved"
	case ActionReject:
		return "rejected"
	}
	return string(a)
}
