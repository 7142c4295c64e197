package judge

import (
	"errors"
	"fmt"
	"time"

	"github.com/codearena/codearena/internal/database/models"
	"gorm.io/gorm"
)

// Track selects which scoring record a verdict applies to.
type Track string

const (
	TrackReal    Track = "REAL"
	TrackVirtual Track = "VIRTUAL"
)

const wrongSubmissionPenalty = 20

// Verdict is one judged outcome to reconcile into the standings.
type Verdict struct {
	ContestID   string
	UserID      string
	ProblemID   string
	Accepted    bool
	Track       Track
	TrackStart  time.Time
	SubmittedAt time.Time
}

// Reconciler applies verdicts to the leaderboard (REAL) or the user's
// virtual participation (VIRTUAL) inside a single transaction, so concurrent
// submissions for the same user and contest cannot lose updates.
type Reconciler struct {
	db *gorm.DB
}

func NewReconciler(db *gorm.DB) *Reconciler {
	return &Reconciler{db: db}
}

func (r *Reconciler) Apply(v Verdict) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		switch v.Track {
		case TrackReal:
			return r.applyToLeaderboard(tx, v)
		case TrackVirtual:
			return r.applyToVirtual(tx, v)
		default:
			return fmt.Errorf("unknown scoring track %q", v.Track)
		}
	})
}

func (r *Reconciler) applyToLeaderboard(tx *gorm.DB, v Verdict) error {
	var entry models.LeaderboardEntry
	err := tx.Where("contest_id = ? AND user_id = ?", v.ContestID, v.UserID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// First touch: the entry is created as part of the same transaction.
		entry = models.LeaderboardEntry{
			ContestID:         v.ContestID,
			UserID:            v.UserID,
			AcceptedProblems:  models.AcceptedMap{},
			WrongSubmissions:  models.CountMap{},
			AttemptedProblems: models.FlagMap{},
		}
	} else if err != nil {
		return err
	}

	if !applyVerdict(v, &entry.AcceptedCount, &entry.Penalty,
		entry.AcceptedProblems, entry.WrongSubmissions, entry.AttemptedProblems) {
		return nil
	}
	return tx.Save(&entry).Error
}

func (r *Reconciler) applyToVirtual(tx *gorm.DB, v Verdict) error {
	var vp models.VirtualParticipation
	if err := tx.Where("contest_id = ? AND user_id = ?", v.ContestID, v.UserID).First(&vp).Error; err != nil {
		return fmt.Errorf("virtual participation not found for contest %s user %s: %w", v.ContestID, v.UserID, err)
	}

	if vp.AcceptedProblems == nil {
		vp.AcceptedProblems = models.AcceptedMap{}
	}
	if vp.WrongSubmissions == nil {
		vp.WrongSubmissions = models.CountMap{}
	}
	if vp.AttemptedProblems == nil {
		vp.AttemptedProblems = models.FlagMap{}
	}

	if !applyVerdict(v, &vp.AcceptedCount, &vp.Penalty,
		vp.AcceptedProblems, vp.WrongSubmissions, vp.AttemptedProblems) {
		return nil
	}
	return tx.Save(&vp).Error
}

// applyVerdict mutates the scoring fields in place and reports whether
// anything changed. The idempotence check must run here, inside the caller's
// transaction, so two concurrent accepted verdicts for the same problem
// cannot both score.
func applyVerdict(v Verdict, acceptedCount, penalty *int,
	accepted models.AcceptedMap, wrong models.CountMap, attempted models.FlagMap) bool {

	if _, done := accepted[v.ProblemID]; done {
		return false
	}

	attempted[v.ProblemID] = true

	if !v.Accepted {
		wrong[v.ProblemID]++
		return true
	}

	elapsed := int(v.SubmittedAt.Sub(v.TrackStart).Minutes())
	if elapsed < 0 {
		elapsed = 0
	}
	problemPenalty := elapsed + wrongSubmissionPenalty*wrong[v.ProblemID]

	accepted[v.ProblemID] = models.AcceptedProblem{
		PenaltyMinutes: problemPenalty,
		AcceptedAt:     v.SubmittedAt,
	}
	*acceptedCount++
	*penalty += problemPenalty
	return true
}
