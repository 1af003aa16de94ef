package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskEventReminders scans backend events and notifies dashboards of
	// those falling due soon.
	TaskEventReminders = "events:reminders"
)

// EventRemindersPayload configures one reminder scan.
type EventRemindersPayload struct {
	WindowMinutes int `json:"window_minutes"`
}

// Window returns the look-ahead as a duration, falling back to def.
func (p EventRemindersPayload) Window(def time.Duration) time.Duration {
	if p.WindowMinutes <= 0 {
		return def
	}
	return time.Duration(p.WindowMinutes) * time.Minute
}

// NewEventRemindersTask constructs an Asynq task.
func NewEventRemindersTask(payload EventRemindersPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEventReminders, data, asynq.Queue(QueueDefault), asynq.MaxRetry(2), asynq.Timeout(time.Minute)), nil
}
