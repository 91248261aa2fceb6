package postgres

import "time"

type jobRunInsertModel struct {
	RunID            string     `db:"run_id"`
	JobName          string     `db:"job_name"`
	ScopeID          string     `db:"scope_id"`
	WindowKey        string     `db:"window_key"`
	Payload          string     `db:"payload"`
	Status           string     `db:"status"`
	StartedAt        *time.Time `db:"started_at"`
	CompletedAt      *time.Time `db:"completed_at"`
	FailedAt         *time.Time `db:"failed_at"`
	LastError        *string    `db:"last_error"`
	StartedTraceID   *string    `db:"started_trace_id"`
	StartedSpanID    *string    `db:"started_span_id"`
	CompletedTraceID *string    `db:"completed_trace_id"`
	CompletedSpanID  *string    `db:"completed_span_id"`
	FailedTraceID    *string    `db:"failed_trace_id"`
	FailedSpanID     *string    `db:"failed_span_id"`
}

type jobRunRow struct {
	RunID     string    `db:"run_id"`
	JobName   string    `db:"job_name"`
	ScopeID   string    `db:"scope_id"`
	WindowKey string    `db:"window_key"`
	Payload   string    `db:"payload"`
	Status    string    `db:"status"`
	LastError *string   `db:"last_error"`
	UpdatedAt time.Time `db:"updated_at"`
	TraceID   *string   `db:"trace_id"`
	SpanID    *string   `db:"span_id"`
}
