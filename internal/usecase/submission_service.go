package usecase

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/access"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/calendar"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/participant"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/proof"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/id"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/logging"
)

const (
	maxProofBytes       = 5 << 20
	submissionHistorySz = 30
)

type SubmitInput struct {
	UserID         string   `validate:"required,max=128"`
	ScopeID        string   `validate:"required,max=128"`
	PercentageGain *float64 `validate:"required"`
	Proof          *ProofInput
}

type ProofInput struct {
	ContentType string    `validate:"required,oneof=image/png image/jpeg image/webp image/gif"`
	Size        int64     `validate:"gt=0,lte=5242880"`
	Body        io.Reader `validate:"required"`
}

type HistoryQuery struct {
	UserID  string
	ScopeID string
}

type SubmissionService struct {
	calendar     *calendar.Calendar
	submissions  submission.Repository
	participants participant.Repository
	checker      access.Checker
	proofs       proof.Store
	ids          id.Generator
	cache        LeaderboardInvalidator
	validator    *validator.Validate
	logger       *logging.Logger
	now          func() time.Time
}

func NewSubmissionService(
	cal *calendar.Calendar,
	submissions submission.Repository,
	participants participant.Repository,
	checker access.Checker,
	proofs proof.Store,
	ids id.Generator,
	cache LeaderboardInvalidator,
	logger *logging.Logger,
) *SubmissionService {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SubmissionService{
		calendar:     cal,
		submissions:  submissions,
		participants: participants,
		checker:      checker,
		proofs:       proofs,
		ids:          ids,
		cache:        cache,
		validator:    validator.New(),
		logger:       logger,
		now:          time.Now,
	}
}

// Submit records the caller's gain for the current trading day. A second
// submission on the same day fails with ErrDuplicateSubmission.
func (s *SubmissionService) Submit(ctx context.Context, input SubmitInput) (submission.Submission, error) {
	ctx, span := startSpan(ctx, "usecase.SubmissionService.Submit")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.ScopeID = strings.TrimSpace(input.ScopeID)
	if err := s.validator.StructCtx(ctx, input); err != nil {
		return submission.Submission{}, fmt.Errorf("%w: validation failed: %v", ErrInvalidInput, err)
	}
	gain := *input.PercentageGain
	if math.IsNaN(gain) || math.IsInf(gain, 0) {
		return submission.Submission{}, fmt.Errorf("%w: percentage gain must be a finite number", ErrInvalidInput)
	}

	if _, err := authorize(ctx, s.checker, input.UserID, input.ScopeID, false); err != nil {
		return submission.Submission{}, err
	}

	member, err := s.ensureParticipant(ctx, input.UserID)
	if err != nil {
		return submission.Submission{}, err
	}

	now := s.now().UTC()
	dayKey := s.calendar.DayKey(now)
	item := submission.Submission{
		ParticipantID:  member.ID,
		ScopeID:        input.ScopeID,
		PercentageGain: gain,
		SubmittedAt:    now,
		TradingDayKey:  dayKey,
		WeekStartKey:   s.calendar.WeekStartKey(now),
	}
	item.ID, err = s.ids.NewID()
	if err != nil {
		return submission.Submission{}, fmt.Errorf("generate submission id: %w", err)
	}

	if input.Proof != nil {
		ref, err := s.uploadProof(ctx, input, member.ID, dayKey)
		if err != nil {
			return submission.Submission{}, err
		}
		item.ProofReference = &ref
	}

	if err := s.submissions.Create(ctx, item); err != nil {
		return submission.Submission{}, storageError(fmt.Sprintf("create submission participant=%s day=%s", member.ID, dayKey), err)
	}
	if s.cache != nil {
		s.cache.InvalidateScope(ctx, input.ScopeID)
	}

	s.logger.InfoContext(ctx, "submission recorded",
		"scope_id", item.ScopeID,
		"participant_id", item.ParticipantID,
		"trading_day_key", item.TradingDayKey,
		"has_proof", item.ProofReference != nil,
	)
	return item, nil
}

// History returns the caller's latest submissions in the scope, newest first.
func (s *SubmissionService) History(ctx context.Context, query HistoryQuery) ([]submission.Submission, error) {
	ctx, span := startSpan(ctx, "usecase.SubmissionService.History")
	defer span.End()

	query.ScopeID = strings.TrimSpace(query.ScopeID)
	if query.ScopeID == "" {
		return nil, fmt.Errorf("%w: scope id is required", ErrInvalidInput)
	}
	if _, err := authorize(ctx, s.checker, query.UserID, query.ScopeID, false); err != nil {
		return nil, err
	}

	member, ok, err := s.participants.GetByExternalID(ctx, strings.TrimSpace(query.UserID))
	if err != nil {
		return nil, storageError("get participant", err)
	}
	if !ok {
		return []submission.Submission{}, nil
	}

	items, err := s.submissions.ListByParticipant(ctx, query.ScopeID, member.ID, submissionHistorySz)
	if err != nil {
		return nil, storageError("list submission history", err)
	}
	return items, nil
}

func (s *SubmissionService) ensureParticipant(ctx context.Context, userID string) (participant.Participant, error) {
	existing, ok, err := s.participants.GetByExternalID(ctx, userID)
	if err != nil {
		return participant.Participant{}, storageError("get participant", err)
	}
	if ok {
		return existing, nil
	}

	profile, err := s.checker.Profile(ctx, userID)
	if err != nil {
		return participant.Participant{}, fmt.Errorf("%w: load profile: %v", ErrDependencyUnavailable, err)
	}
	participantID, err := s.ids.NewID()
	if err != nil {
		return participant.Participant{}, fmt.Errorf("generate participant id: %w", err)
	}

	now := s.now().UTC()
	created, err := s.participants.Create(ctx, participant.Participant{
		ID:          participantID,
		ExternalID:  userID,
		DisplayName: strings.TrimSpace(profile.DisplayName),
		Handle:      strings.TrimSpace(profile.Handle),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return participant.Participant{}, storageError("create participant", err)
	}
	return created, nil
}

func (s *SubmissionService) uploadProof(ctx context.Context, input SubmitInput, participantID, dayKey string) (string, error) {
	if s.proofs == nil {
		return "", fmt.Errorf("%w: proof store is not configured", ErrDependencyUnavailable)
	}
	ref, err := s.proofs.Put(ctx, proof.Upload{
		ScopeID:       input.ScopeID,
		ParticipantID: participantID,
		DayKey:        dayKey,
		ContentType:   input.Proof.ContentType,
		Size:          input.Proof.Size,
		Body:          io.LimitReader(input.Proof.Body, maxProofBytes),
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload proof: %v", ErrDependencyUnavailable, err)
	}
	return ref, nil
}
