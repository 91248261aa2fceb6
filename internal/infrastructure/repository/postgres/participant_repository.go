package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/participant"
	qb "github.com/riskibarqy/pulse-leaderboard/internal/platform/querybuilder"
)

const participantColumns = `public_id, external_id, display_name, handle, prestige_level, created_at, updated_at`

type ParticipantRepository struct {
	db *sqlx.DB
}

func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) GetByID(ctx context.Context, participantID string) (participant.Participant, bool, error) {
	return r.getOne(ctx, "public_id", participantID)
}

func (r *ParticipantRepository) GetByExternalID(ctx context.Context, externalID string) (participant.Participant, bool, error) {
	return r.getOne(ctx, "external_id", externalID)
}

func (r *ParticipantRepository) Create(ctx context.Context, p participant.Participant) (participant.Participant, error) {
	if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.ExternalID) == "" {
		return participant.Participant{}, fmt.Errorf("participant id and external id are required")
	}

	model := participantInsertModel{
		PublicID:      p.ID,
		ExternalID:    p.ExternalID,
		DisplayName:   p.DisplayName,
		Handle:        p.Handle,
		PrestigeLevel: max(p.PrestigeLevel, 0),
	}
	query, args, err := qb.InsertModel("participants", model,
		`ON CONFLICT (external_id) DO NOTHING RETURNING `+participantColumns)
	if err != nil {
		return participant.Participant{}, fmt.Errorf("build insert participant query: %w", err)
	}

	var row participantRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if !isNotFound(err) {
			return participant.Participant{}, classifyError(err, "insert participant")
		}
		// Lost the race on external_id; hand back the row that won.
		existing, ok, getErr := r.GetByExternalID(ctx, p.ExternalID)
		if getErr != nil {
			return participant.Participant{}, getErr
		}
		if !ok {
			return participant.Participant{}, fmt.Errorf("participant external_id=%s vanished after conflict", p.ExternalID)
		}
		return existing, nil
	}

	return participantFromRow(row), nil
}

func (r *ParticipantRepository) getOne(ctx context.Context, column, value string) (participant.Participant, bool, error) {
	query, args, err := qb.Select(participantColumns).
		From("participants").
		Where(qb.Eq(column, value)).
		ToSQL()
	if err != nil {
		return participant.Participant{}, false, fmt.Errorf("build get participant query: %w", err)
	}

	var row participantRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return participant.Participant{}, false, nil
		}
		return participant.Participant{}, false, classifyError(err, "get participant by "+column)
	}

	return participantFromRow(row), true, nil
}

func participantFromRow(row participantRow) participant.Participant {
	return participant.Participant{
		ID:            row.PublicID,
		ExternalID:    row.ExternalID,
		DisplayName:   row.DisplayName,
		Handle:        row.Handle,
		PrestigeLevel: row.PrestigeLevel,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
