package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/participant"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
	qb "github.com/riskibarqy/pulse-leaderboard/internal/platform/querybuilder"
)

var joinedSubmissionColumns = []string{
	"s.public_id",
	"s.participant_public_id",
	"s.scope_id",
	"s.percentage_gain",
	"s.proof_reference",
	"s.submitted_at",
	"s.trading_day_key",
	"s.week_start_key",
	"p.display_name",
	"p.handle",
	"p.prestige_level",
}

type SubmissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Create(ctx context.Context, item submission.Submission) error {
	model := submissionInsertModel{
		PublicID:            item.ID,
		ParticipantPublicID: item.ParticipantID,
		ScopeID:             item.ScopeID,
		PercentageGain:      item.PercentageGain,
		ProofReference:      item.ProofReference,
		SubmittedAt:         item.SubmittedAt.UTC(),
		TradingDayKey:       item.TradingDayKey,
		WeekStartKey:        item.WeekStartKey,
	}
	query, args, err := qb.InsertModel("submissions", model, "")
	if err != nil {
		return fmt.Errorf("build insert submission query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return classifyError(err, fmt.Sprintf("insert submission participant=%s scope=%s day=%s",
			item.ParticipantID, item.ScopeID, item.TradingDayKey))
	}
	return nil
}

func (r *SubmissionRepository) ListByDay(ctx context.Context, scopeID, dayKey string) ([]submission.Joined, error) {
	return r.listJoined(ctx, "list submissions by day",
		qb.Eq("s.scope_id", scopeID),
		qb.Eq("s.trading_day_key", dayKey),
	)
}

func (r *SubmissionRepository) ListByWeek(ctx context.Context, scopeID, weekKey string) ([]submission.Joined, error) {
	return r.listJoined(ctx, "list submissions by week",
		qb.Eq("s.scope_id", scopeID),
		qb.Eq("s.week_start_key", weekKey),
	)
}

func (r *SubmissionRepository) ListScopesByDay(ctx context.Context, dayKey string) ([]string, error) {
	query, args, err := qb.SelectDistinct("scope_id").
		From("submissions").
		Where(qb.Eq("trading_day_key", dayKey)).
		OrderBy("scope_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list scopes query: %w", err)
	}

	out := make([]string, 0)
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, classifyError(err, "list scopes by day")
	}
	return out, nil
}

func (r *SubmissionRepository) ListByParticipant(ctx context.Context, scopeID, participantID string, limit int) ([]submission.Submission, error) {
	query, args, err := qb.Select(
		"public_id", "participant_public_id", "scope_id", "percentage_gain",
		"proof_reference", "submitted_at", "trading_day_key", "week_start_key",
	).
		From("submissions").
		Where(
			qb.Eq("scope_id", scopeID),
			qb.Eq("participant_public_id", participantID),
		).
		OrderBy("submitted_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list participant submissions query: %w", err)
	}

	var rows []submissionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classifyError(err, "list submissions by participant")
	}

	out := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		out = append(out, submissionFromRow(row))
	}
	return out, nil
}

func (r *SubmissionRepository) CountParticipants(ctx context.Context, scopeID string) (int, error) {
	const query = `
SELECT COUNT(DISTINCT participant_public_id)
FROM submissions
WHERE scope_id = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, scopeID); err != nil {
		return 0, classifyError(err, "count scope participants")
	}
	return count, nil
}

func (r *SubmissionRepository) listJoined(ctx context.Context, op string, conditions ...qb.Condition) ([]submission.Joined, error) {
	query, args, err := qb.Select(joinedSubmissionColumns...).
		From("submissions s").
		Join("participants p", "p.public_id = s.participant_public_id").
		Where(conditions...).
		OrderBy("s.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []joinedSubmissionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classifyError(err, op)
	}

	out := make([]submission.Joined, 0, len(rows))
	for _, row := range rows {
		out = append(out, submission.Joined{
			Submission: submissionFromRow(row.submissionRow),
			Participant: participant.Snapshot{
				DisplayName:   row.DisplayName,
				Handle:        row.Handle,
				PrestigeLevel: row.PrestigeLevel,
			},
		})
	}
	return out, nil
}

func submissionFromRow(row submissionRow) submission.Submission {
	return submission.Submission{
		ID:             row.PublicID,
		ParticipantID:  row.ParticipantPublicID,
		ScopeID:        row.ScopeID,
		PercentageGain: row.PercentageGain,
		ProofReference: row.ProofReference,
		SubmittedAt:    row.SubmittedAt,
		TradingDayKey:  row.TradingDayKey,
		WeekStartKey:   row.WeekStartKey,
	}
}
