package records

import (
	"net/url"
	"time"
)

// Event is a scheduled operational task such as a delivery or inspection.
type Event struct {
	ID          string     `json:"id" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Type        string     `json:"type"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	AssignedTo  *string    `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date"`
}

// Event statuses that still need attention.
const (
	EventScheduled  = "scheduled"
	EventInProgress = "in_progress"
)

var (
	eventTypes      = []string{"maintenance", "inspection", "delivery", "pickup", "alert", "notification"}
	eventPriorities = []string{"low", "medium", "high", "critical"}
	eventStatuses   = []string{"scheduled", "in_progress", "completed", "cancelled"}
)

// Open reports whether the event is neither completed nor cancelled.
func (e Event) Open() bool {
	return e.Status == EventScheduled || e.Status == EventInProgress || e.Status == ""
}

// DueWithin reports whether an open event falls due in [now, now+window].
func (e Event) DueWithin(now time.Time, window time.Duration) bool {
	if !e.Open() || e.DueDate == nil {
		return false
	}
	due := *e.DueDate
	return !due.Before(now) && !due.After(now.Add(window))
}

// EventColumns are the table headings matching Event.Cells.
var EventColumns = []string{"Title", "Type", "Priority", "Assigned to", "Due", "Status"}

// EventFields describe the event form.
var EventFields = []Field{
	{Name: "title", Label: "Title", Type: "text", Required: true},
	{Name: "description", Label: "Description", Type: "textarea", Required: true},
	{Name: "type", Label: "Type", Type: "select", Options: eventTypes, Required: true},
	{Name: "priority", Label: "Priority", Type: "select", Options: eventPriorities},
	{Name: "status", Label: "Status", Type: "select", Options: eventStatuses},
	{Name: "assigned_to", Label: "Assigned to", Type: "text"},
	{Name: "due_date", Label: "Due date", Type: "date", Required: true},
}

func (e Event) Key() string { return e.ID }

func (e Event) Cells() []string {
	assignee := deref(e.AssignedTo)
	if assignee == "" {
		assignee = "-"
	}
	return []string{e.Title, humanize(e.Type), humanize(e.Priority), assignee, FormatDate(e.DueDate), humanize(e.Status)}
}

func (e Event) FormValues() map[string]string {
	return map[string]string{
		"title":       e.Title,
		"description": e.Description,
		"type":        e.Type,
		"priority":    e.Priority,
		"status":      e.Status,
		"assigned_to": deref(e.AssignedTo),
		"due_date":    dateValue(e.DueDate),
	}
}

// EventInput is the create/update payload.
type EventInput struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"required,max=1000"`
	Type        string     `json:"type" validate:"required,oneof=maintenance inspection delivery pickup alert notification"`
	Priority    string     `json:"priority,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Status      string     `json:"status,omitempty" validate:"omitempty,oneof=scheduled in_progress completed cancelled"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	DueDate     *time.Time `json:"due_date" validate:"required"`
}

// BindEvent reads and validates an event form.
func BindEvent(values url.Values, _ bool) (any, error) {
	f := newForm(values)
	in := EventInput{
		Title:       f.str("title"),
		Description: f.str("description"),
		Type:        f.str("type"),
		Priority:    f.str("priority"),
		Status:      f.str("status"),
		AssignedTo:  f.optStr("assigned_to"),
		DueDate:     f.date("due_date"),
	}
	if err := f.check(in); err != nil {
		return nil, err
	}
	return in, nil
}
