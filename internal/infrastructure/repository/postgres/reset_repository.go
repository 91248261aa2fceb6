package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/reset"
	qb "github.com/riskibarqy/pulse-leaderboard/internal/platform/querybuilder"
)

type ResetRepository struct {
	db *sqlx.DB
}

func NewResetRepository(db *sqlx.DB) *ResetRepository {
	return &ResetRepository{db: db}
}

func (r *ResetRepository) HasOccurred(ctx context.Context, scopeID string, kind reset.WindowKind, windowKey string) (bool, error) {
	const query = `
SELECT EXISTS (
    SELECT 1
    FROM reset_records
    WHERE scope_id = $1
      AND window_kind = $2
      AND window_key = $3
)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, scopeID, string(kind), windowKey); err != nil {
		return false, classifyError(err, "check reset record")
	}
	return exists, nil
}

func (r *ResetRepository) ListByScope(ctx context.Context, scopeID string, limit int) ([]reset.Record, error) {
	query, args, err := qb.Select(
		"public_id", "scope_id", "window_kind", "window_key",
		"initiator", "winner_participant_public_id", "triggered_at",
	).
		From("reset_records").
		Where(qb.Eq("scope_id", scopeID)).
		OrderBy("triggered_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list reset records query: %w", err)
	}

	var rows []resetRecordRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classifyError(err, "list reset records")
	}

	out := make([]reset.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, reset.Record{
			ID:                  row.PublicID,
			ScopeID:             row.ScopeID,
			WindowKind:          reset.WindowKind(row.WindowKind),
			WindowKey:           row.WindowKey,
			Initiator:           row.Initiator,
			WinnerParticipantID: row.WinnerParticipantPublicID,
			TriggeredAt:         row.TriggeredAt,
		})
	}
	return out, nil
}

func (r *ResetRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx reset.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return classifyError(err, "begin tx reset window")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(ctx, &resetTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classifyError(err, "commit tx reset window")
	}
	return nil
}

type resetTx struct {
	tx *sqlx.Tx
}

func (t *resetTx) Claim(ctx context.Context, record reset.Record) (bool, error) {
	model := resetRecordInsertModel{
		PublicID:                  record.ID,
		ScopeID:                   record.ScopeID,
		WindowKind:                string(record.WindowKind),
		WindowKey:                 record.WindowKey,
		Initiator:                 record.Initiator,
		WinnerParticipantPublicID: optionalString(stringValue(record.WinnerParticipantID)),
		TriggeredAt:               record.TriggeredAt.UTC(),
	}
	query, args, err := qb.InsertModel("reset_records", model,
		"ON CONFLICT (scope_id, window_kind, window_key) DO NOTHING")
	if err != nil {
		return false, fmt.Errorf("build claim reset query: %w", err)
	}

	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, classifyError(err, fmt.Sprintf("claim reset scope=%s kind=%s window=%s",
			record.ScopeID, record.WindowKind, record.WindowKey))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, classifyError(err, "claim reset rows affected")
	}
	return affected == 1, nil
}

func (t *resetTx) IncrementPrestige(ctx context.Context, participantID string) (int, error) {
	query, args, err := qb.Update("participants").
		SetExpr("prestige_level", "prestige_level + 1").
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("public_id", participantID)).
		Suffix("RETURNING prestige_level").
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build increment prestige query: %w", err)
	}

	var level int
	if err := t.tx.GetContext(ctx, &level, query, args...); err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("participant %s does not exist", participantID)
		}
		return 0, classifyError(err, "increment prestige participant="+participantID)
	}
	return level, nil
}
