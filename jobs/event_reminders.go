package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rentaldesk/rentaldesk/internal/backend"
	"github.com/rentaldesk/rentaldesk/internal/events"
	jobmetrics "github.com/rentaldesk/rentaldesk/internal/jobs"
	"github.com/rentaldesk/rentaldesk/internal/records"
	"github.com/rentaldesk/rentaldesk/internal/roles"
	"github.com/rentaldesk/rentaldesk/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ErrNoServiceToken is returned when the worker has no backend credential.
var ErrNoServiceToken = errors.New("event reminders: no backend service token configured")

// EventLister lists backend events. *backend.Resource[records.Event]
// satisfies it.
type EventLister interface {
	List(ctx context.Context) ([]records.Event, error)
}

// Forwarder hands a notification to the web process.
type Forwarder interface {
	Forward(ctx context.Context, n events.Notification) error
}

// Claimer remembers which reminders were already sent. *shared.IdempotencyStore
// satisfies it.
type Claimer interface {
	CheckAndInsert(ctx context.Context, key, module string, ttl time.Duration) error
	Delete(ctx context.Context, key, module string) error
}

const reminderModule = "event-reminders"

// reminderRoles are the dashboards told about due events.
var reminderRoles = []roles.Role{roles.Admin, roles.SuperAdmin}

// EventReminderJob notifies admin dashboards of open events due soon.
type EventReminderJob struct {
	Events  EventLister
	Relay   Forwarder
	Token   string
	Window  time.Duration
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	// Sent suppresses repeat reminders for the same event and due date. Nil
	// sends on every run.
	Sent  Claimer
	clock func() time.Time
}

// NewEventReminderJob wires dependencies for the reminder handler.
func NewEventReminderJob(lister EventLister, relay Forwarder, token string, window time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *EventReminderJob {
	return &EventReminderJob{
		Events:  lister,
		Relay:   relay,
		Token:   token,
		Window:  window,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskEventReminders tasks.
func (j *EventReminderJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Events == nil || j.Relay == nil {
		return errors.New("event reminders: handler not configured")
	}
	var payload EventRemindersPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("event reminders: decode payload: %w", asynq.SkipRetry)
		}
	}
	window := payload.Window(j.defaultWindow())

	tracker := j.metrics().Track(TaskEventReminders)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if j.Token == "" {
		resultErr = fmt.Errorf("%w: %w", ErrNoServiceToken, asynq.SkipRetry)
		j.logger().Warn("event reminders skipped", slog.Any("error", ErrNoServiceToken))
		return resultErr
	}

	logger := j.logger().With(slog.Duration("window", window))
	list, err := j.Events.List(backend.WithToken(ctx, j.Token))
	if err != nil {
		resultErr = fmt.Errorf("event reminders: list events: %w", err)
		logger.Error("list events", slog.Any("error", err))
		return resultErr
	}

	due := Due(list, j.now(), window)
	if len(due) == 0 {
		logger.Info("no events due")
		return nil
	}

	sent := 0
	for _, ev := range due {
		for _, role := range reminderRoles {
			key := reminderKey(ev, role)
			if j.Sent != nil {
				err := j.Sent.CheckAndInsert(ctx, key, reminderModule, window)
				if errors.Is(err, shared.ErrIdempotencyConflict) {
					continue
				}
				if err != nil {
					logger.Warn("reminder ledger unavailable", slog.Any("error", err))
				}
			}
			n := events.Notification{
				Kind:    events.EventDue,
				Scope:   events.Scope{Role: role},
				Entity:  "events",
				Message: reminderMessage(ev),
			}
			if err := j.Relay.Forward(ctx, n); err != nil {
				if j.Sent != nil {
					_ = j.Sent.Delete(ctx, key, reminderModule)
				}
				resultErr = fmt.Errorf("event reminders: forward %s to %s: %w", ev.ID, role, err)
				logger.Error("forward reminder", slog.String("event_id", ev.ID), slog.String("role", string(role)), slog.Any("error", err))
				return resultErr
			}
			j.metrics().AddReminders(ev.Priority, 1)
			sent++
		}
	}
	logger.Info("event reminders sent", slog.Int("notifications", sent), slog.Int("due", len(due)))
	return nil
}

// Due returns the open events falling due in [now, now+window], soonest first.
func Due(list []records.Event, now time.Time, window time.Duration) []records.Event {
	var out []records.Event
	for _, ev := range list {
		if ev.DueWithin(now, window) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, k int) bool {
		return out[i].DueDate.Before(*out[k].DueDate)
	})
	return out
}

// reminderKey identifies one reminder: an event, its due date and the
// dashboard told about it. A rescheduled event gets new keys.
func reminderKey(ev records.Event, role roles.Role) string {
	return ev.ID + "@" + ev.DueDate.UTC().Format(time.RFC3339) + "/" + string(role)
}

func reminderMessage(ev records.Event) string {
	msg := fmt.Sprintf("%s is due %s", ev.Title, ev.DueDate.UTC().Format("02 Jan 15:04"))
	if ev.AssignedTo != nil && *ev.AssignedTo != "" {
		msg += " (" + *ev.AssignedTo + ")"
	}
	return msg + "."
}

func (j *EventReminderJob) defaultWindow() time.Duration {
	if j.Window > 0 {
		return j.Window
	}
	return 24 * time.Hour
}

func (j *EventReminderJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *EventReminderJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *EventReminderJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
