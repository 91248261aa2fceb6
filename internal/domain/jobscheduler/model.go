package jobscheduler

import "time"

type RunStatus string

const (
	StatusStarted   RunStatus = "started"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// RunEvent is the latest known state of one scheduled job run for a scope.
type RunEvent struct {
	RunID        string         `json:"run_id"`
	JobName      string         `json:"job_name"`
	ScopeID      string         `json:"scope_id"`
	WindowKey    string         `json:"window_key"`
	Status       RunStatus      `json:"status"`
	Payload      map[string]any `json:"payload,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
	TraceID      string         `json:"trace_id,omitempty"`
	SpanID       string         `json:"span_id,omitempty"`
}
