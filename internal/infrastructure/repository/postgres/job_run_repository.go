package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/jobscheduler"
	qb "github.com/riskibarqy/pulse-leaderboard/internal/platform/querybuilder"
)

type JobRunRepository struct {
	db *sqlx.DB
}

func NewJobRunRepository(db *sqlx.DB) *JobRunRepository {
	return &JobRunRepository{db: db}
}

func (r *JobRunRepository) UpsertEvent(ctx context.Context, event jobscheduler.RunEvent) error {
	runID := strings.TrimSpace(event.RunID)
	if runID == "" {
		return fmt.Errorf("run id is required")
	}

	jobName := strings.TrimSpace(event.JobName)
	if jobName == "" {
		jobName = "unknown"
	}
	scopeID := strings.TrimSpace(event.ScopeID)
	if scopeID == "" {
		scopeID = "unknown"
	}

	occurredAt := event.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	payloadJSON, err := marshalPayload(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal job run payload: %w", err)
	}

	model := jobRunInsertModel{
		RunID:     runID,
		JobName:   jobName,
		ScopeID:   scopeID,
		WindowKey: strings.TrimSpace(event.WindowKey),
		Payload:   payloadJSON,
		Status:    string(event.Status),
		LastError: optionalString(event.ErrorMessage),
	}

	switch event.Status {
	case jobscheduler.StatusStarted:
		model.StartedAt = &occurredAt
		model.StartedTraceID = optionalString(event.TraceID)
		model.StartedSpanID = optionalString(event.SpanID)
		model.LastError = nil
	case jobscheduler.StatusCompleted:
		model.CompletedAt = &occurredAt
		model.CompletedTraceID = optionalString(event.TraceID)
		model.CompletedSpanID = optionalString(event.SpanID)
		model.LastError = nil
	case jobscheduler.StatusFailed:
		model.FailedAt = &occurredAt
		model.FailedTraceID = optionalString(event.TraceID)
		model.FailedSpanID = optionalString(event.SpanID)
	}

	query, args, err := qb.InsertModel("job_runs", model, `ON CONFLICT (run_id)
DO UPDATE SET
    job_name = EXCLUDED.job_name,
    scope_id = EXCLUDED.scope_id,
    window_key = EXCLUDED.window_key,
    payload = EXCLUDED.payload,
    status = EXCLUDED.status,
    started_at = COALESCE(job_runs.started_at, EXCLUDED.started_at),
    completed_at = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_at
        ELSE job_runs.completed_at
    END,
    failed_at = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_at
        WHEN EXCLUDED.status = 'completed' THEN NULL
        ELSE job_runs.failed_at
    END,
    last_error = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.last_error
        ELSE NULL
    END,
    started_trace_id = COALESCE(job_runs.started_trace_id, EXCLUDED.started_trace_id),
    started_span_id = COALESCE(job_runs.started_span_id, EXCLUDED.started_span_id),
    completed_trace_id = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_trace_id
        ELSE job_runs.completed_trace_id
    END,
    completed_span_id = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_span_id
        ELSE job_runs.completed_span_id
    END,
    failed_trace_id = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_trace_id
        ELSE job_runs.failed_trace_id
    END,
    failed_span_id = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_span_id
        ELSE job_runs.failed_span_id
    END,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert job run query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return classifyError(err, fmt.Sprintf("upsert job run run_id=%s status=%s", runID, event.Status))
	}

	return nil
}

func (r *JobRunRepository) ListByWindow(ctx context.Context, jobName, windowKey string) ([]jobscheduler.RunEvent, error) {
	const query = `
SELECT run_id, job_name, scope_id, window_key, payload::text AS payload, status, last_error, updated_at,
       CASE status
           WHEN 'completed' THEN completed_trace_id
           WHEN 'failed' THEN failed_trace_id
           ELSE started_trace_id
       END AS trace_id,
       CASE status
           WHEN 'completed' THEN completed_span_id
           WHEN 'failed' THEN failed_span_id
           ELSE started_span_id
       END AS span_id
FROM job_runs
WHERE job_name = $1
  AND window_key = $2
ORDER BY scope_id`

	var rows []jobRunRow
	if err := r.db.SelectContext(ctx, &rows, query, jobName, windowKey); err != nil {
		return nil, classifyError(err, "list job runs by window")
	}

	out := make([]jobscheduler.RunEvent, 0, len(rows))
	for _, row := range rows {
		payload, err := unmarshalPayload(row.Payload)
		if err != nil {
			return nil, fmt.Errorf("decode job run payload run_id=%s: %w", row.RunID, err)
		}
		out = append(out, jobscheduler.RunEvent{
			RunID:        row.RunID,
			JobName:      row.JobName,
			ScopeID:      row.ScopeID,
			WindowKey:    row.WindowKey,
			Status:       jobscheduler.RunStatus(row.Status),
			Payload:      payload,
			ErrorMessage: stringValue(row.LastError),
			OccurredAt:   row.UpdatedAt,
			TraceID:      stringValue(row.TraceID),
			SpanID:       stringValue(row.SpanID),
		})
	}
	return out, nil
}

func marshalPayload(payload map[string]any) (string, error) {
	if len(payload) == 0 {
		return "{}", nil
	}
	return sonic.MarshalString(payload)
}

func unmarshalPayload(raw string) (map[string]any, error) {
	out := make(map[string]any)
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if err := sonic.UnmarshalString(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
