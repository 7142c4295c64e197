package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codearena/codearena/internal/config"
	"github.com/codearena/codearena/internal/contest"
	"github.com/codearena/codearena/internal/database"
	"github.com/codearena/codearena/internal/database/models"
	"github.com/codearena/codearena/internal/pubsub"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrEmptySource       = errors.New("source code is empty")
	ErrNoProblem         = errors.New("no problem selected")
	ErrNoTestCases       = errors.New("problem has no test cases")
	ErrNotEligible       = errors.New("not registered for contest and no active virtual session")
	ErrContestNotStarted = errors.New("contest has not started yet")
)

// SubmitRequest carries everything needed to judge one attempt.
type SubmitRequest struct {
	Contest    *contest.Contest
	Problem    *contest.Problem
	UserID     string
	Language   string
	SourceCode string
}

// Orchestrator sequences per-test-case judging for a submission, aggregates
// the verdict, persists the record, and hands on-time results to the
// reconciler. Test cases are judged one at a time, in order, with a fixed
// pause between calls as a courtesy rate limit toward the execution service.
type Orchestrator struct {
	db         *gorm.DB
	client     *Client
	reconciler *Reconciler
	delay      time.Duration
}

func NewOrchestrator(db *gorm.DB, client *Client, reconciler *Reconciler, cfg config.Judge) *Orchestrator {
	return &Orchestrator{
		db:         db,
		client:     client,
		reconciler: reconciler,
		delay:      time.Duration(cfg.DelayMS) * time.Millisecond,
	}
}

// Submit judges one attempt end to end and returns the persisted submission.
// A mid-loop execution failure aborts the whole attempt; nothing is saved.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*models.Submission, error) {
	if req.Problem == nil {
		return nil, ErrNoProblem
	}
	if strings.TrimSpace(req.SourceCode) == "" {
		return nil, ErrEmptySource
	}
	if len(req.Problem.TestCases) == 0 {
		return nil, ErrNoTestCases
	}
	if _, ok := runtimes[req.Language]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, req.Language)
	}

	registered, err := database.IsUserRegisteredForContest(o.db, req.UserID, req.Contest.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check contest registration: %w", err)
	}
	vp, err := database.GetVirtualParticipation(o.db, req.Contest.ID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to read virtual participation: %w", err)
	}
	virtualOngoing := vp != nil && vp.Status == models.VirtualOngoing
	if !registered && !virtualOngoing {
		return nil, ErrNotEligible
	}

	now := time.Now()
	start := contest.ParseStartTime(req.Contest.StartTimeRaw, now)
	window := contest.Resolve(start, req.Contest.LengthMinutes, vp, now)

	var (
		isLate     bool
		track      Track
		trackStart time.Time
	)
	switch window.Phase {
	case contest.PhaseUpcoming:
		return nil, ErrContestNotStarted
	case contest.PhaseReal:
		track, trackStart = TrackReal, start
	case contest.PhaseVirtual:
		track, trackStart = TrackVirtual, vp.StartedAt
	case contest.PhaseEnded:
		// Judged and recorded for reference, but never scored.
		isLate = true
	}

	submissionID := uuid.NewString()
	broker := pubsub.GetBroker()

	results := make([]CaseResult, 0, len(req.Problem.TestCases))
	for i, tc := range req.Problem.TestCases {
		if i > 0 {
			select {
			case <-time.After(o.delay):
			case <-ctx.Done():
				broker.Publish(submissionID, pubsub.FormatMessage("error", "judging aborted"))
				broker.CloseTopic(submissionID)
				return nil, ctx.Err()
			}
		}

		broker.Publish(submissionID, pubsub.FormatMessage("progress",
			fmt.Sprintf("running test case %d/%d", i+1, len(req.Problem.TestCases))))

		run, err := o.client.Execute(ctx, req.Language, req.SourceCode, tc.Input)
		if err != nil {
			broker.Publish(submissionID, pubsub.FormatMessage("error", "judging aborted"))
			broker.CloseTopic(submissionID)
			return nil, fmt.Errorf("judging aborted at test case %d: %w", i+1, err)
		}
		results = append(results, JudgeCase(run, tc.Output))
	}

	agg := AggregateVerdict(results)

	sub := &models.Submission{
		ID:         submissionID,
		ContestID:  req.Contest.ID,
		ProblemID:  req.Problem.ID,
		UserID:     req.UserID,
		Language:   req.Language,
		SourceCode: req.SourceCode,
		Status:     agg.Status,
		Passed:     agg.Passed,
		Total:      agg.Total,
		RuntimeMS:  agg.TimeMS,
		MemoryKB:   agg.MemoryKB,
		IsLate:     isLate,
		IsVirtual:  window.Phase == contest.PhaseVirtual,
		IsValid:    true,
	}
	if err := database.CreateSubmission(o.db, sub); err != nil {
		broker.CloseTopic(submissionID)
		return nil, fmt.Errorf("failed to persist submission: %w", err)
	}

	broker.Publish(submissionID, pubsub.FormatMessage("verdict", string(agg.Status)))
	broker.CloseTopic(submissionID)

	if isLate {
		zap.S().Infof("late submission %s recorded for contest %s, standings unchanged", sub.ID, req.Contest.ID)
		return sub, nil
	}

	verdict := Verdict{
		ContestID:   req.Contest.ID,
		UserID:      req.UserID,
		ProblemID:   req.Problem.ID,
		Accepted:    agg.Status == models.StatusAccepted,
		Track:       track,
		TrackStart:  trackStart,
		SubmittedAt: now,
	}
	if err := o.reconciler.Apply(verdict); err != nil {
		return nil, fmt.Errorf("failed to update standings for submission %s: %w", sub.ID, err)
	}

	zap.S().Infof("submission %s judged: %s (%d/%d passed)", sub.ID, agg.Status, agg.Passed, agg.Total)
	return sub, nil
}
