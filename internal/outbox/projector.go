package outbox

import (
	"context"
	"time"

	"github.com/codearena/codearena/internal/database"
	"github.com/codearena/codearena/internal/database/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Projector drains the submission outbox into the per-user submission
// history. The history is a denormalized copy; the submissions table stays
// the single source of truth, and a failed projection is retried on the next
// sweep instead of being lost.
type Projector struct {
	db        *gorm.DB
	interval  time.Duration
	batchSize int
}

func NewProjector(db *gorm.DB) *Projector {
	return &Projector{
		db:        db,
		interval:  2 * time.Second,
		batchSize: 64,
	}
}

// Run sweeps the outbox until ctx is cancelled, with one final drain on the
// way out so a clean shutdown leaves no pending rows behind.
func (p *Projector) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Drain batch by batch until nothing projects anymore; rows
			// that keep failing stay queued for the next start.
			for p.Sweep() > 0 {
			}
			return
		case <-ticker.C:
			p.Sweep()
		}
	}
}

// Sweep projects one batch of outbox rows and returns how many succeeded.
func (p *Projector) Sweep() int {
	rows, err := database.NextOutboxBatch(p.db, p.batchSize)
	if err != nil {
		zap.S().Errorf("failed to read submission outbox: %v", err)
		return 0
	}

	projected := 0
	for _, row := range rows {
		if err := p.project(row); err != nil {
			zap.S().Warnf("failed to project submission %s (attempt %d): %v",
				row.SubmissionID, row.Attempts+1, err)
			if err := database.MarkOutboxFailure(p.db, row.ID, err.Error()); err != nil {
				zap.S().Errorf("failed to record outbox failure for %s: %v", row.SubmissionID, err)
			}
			continue
		}
		projected++
	}
	return projected
}

func (p *Projector) project(row models.SubmissionOutbox) error {
	sub, err := database.GetSubmission(p.db, row.SubmissionID)
	if err != nil {
		return err
	}

	entry := models.UserSubmissionLog{
		SubmissionID: sub.ID,
		UserID:       sub.UserID,
		ContestID:    sub.ContestID,
		ProblemID:    sub.ProblemID,
		Language:     sub.Language,
		Status:       sub.Status,
		Passed:       sub.Passed,
		Total:        sub.Total,
		IsLate:       sub.IsLate,
		IsVirtual:    sub.IsVirtual,
		SubmittedAt:  sub.CreatedAt,
	}

	return p.db.Transaction(func(tx *gorm.DB) error {
		// A retried sweep may race an earlier partial success; the unique
		// index on submission_id makes the copy idempotent.
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
			return err
		}
		return database.DeleteOutboxRow(tx, row.ID)
	})
}
