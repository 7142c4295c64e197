package outbox

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/codearena/codearena/internal/database"
	"github.com/codearena/codearena/internal/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Init(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func seedSubmission(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	require.NoError(t, database.CreateSubmission(db, &models.Submission{
		ID:        id,
		ContestID: "c1",
		ProblemID: "p1",
		UserID:    "u1",
		Language:  "python",
		Status:    models.StatusAccepted,
		Passed:    2,
		Total:     2,
		IsValid:   true,
	}))
}

func TestSweepProjectsSubmissionIntoHistory(t *testing.T) {
	db := newTestDB(t)
	seedSubmission(t, db, "s1")

	assert.Equal(t, 1, NewProjector(db).Sweep())

	var log models.UserSubmissionLog
	require.NoError(t, db.Where("submission_id = ?", "s1").First(&log).Error)
	assert.Equal(t, "u1", log.UserID)
	assert.Equal(t, models.StatusAccepted, log.Status)

	var pending int64
	db.Model(&models.SubmissionOutbox{}).Count(&pending)
	assert.Zero(t, pending, "projected rows leave the outbox")
}

func TestSweepIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	seedSubmission(t, db, "s1")

	NewProjector(db).Sweep()
	assert.Zero(t, NewProjector(db).Sweep(), "second sweep has nothing to do")

	var logs int64
	db.Model(&models.UserSubmissionLog{}).Count(&logs)
	assert.Equal(t, int64(1), logs)
}

func TestSweepKeepsFailedRowsForRetry(t *testing.T) {
	db := newTestDB(t)
	seedSubmission(t, db, "s1")
	// An outbox row whose submission is missing cannot be projected yet.
	require.NoError(t, db.Create(&models.SubmissionOutbox{SubmissionID: "ghost"}).Error)

	assert.Equal(t, 1, NewProjector(db).Sweep())

	var row models.SubmissionOutbox
	require.NoError(t, db.Where("submission_id = ?", "ghost").First(&row).Error)
	assert.Equal(t, 1, row.Attempts)
	assert.NotEmpty(t, row.LastError)

	// The stuck row is retried, not dropped.
	assert.Equal(t, 0, NewProjector(db).Sweep())
	require.NoError(t, db.Where("submission_id = ?", "ghost").First(&row).Error)
	assert.Equal(t, 2, row.Attempts)
}

func TestRunDrainsBacklogOnShutdown(t *testing.T) {
	db := newTestDB(t)
	for _, id := range []string{"s1", "s2", "s3", "s4", "s5"} {
		seedSubmission(t, db, id)
	}

	p := NewProjector(db)
	p.batchSize = 2 // backlog spans several batches

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Run(ctx)

	var logs, pending int64
	db.Model(&models.UserSubmissionLog{}).Count(&logs)
	db.Model(&models.SubmissionOutbox{}).Count(&pending)
	assert.Equal(t, int64(5), logs)
	assert.Zero(t, pending, "shutdown leaves no projectable rows behind")
}

func TestSweepProjectsBatches(t *testing.T) {
	db := newTestDB(t)
	seedSubmission(t, db, "s1")
	seedSubmission(t, db, "s2")
	seedSubmission(t, db, "s3")

	assert.Equal(t, 3, NewProjector(db).Sweep())

	var logs int64
	db.Model(&models.UserSubmissionLog{}).Count(&logs)
	assert.Equal(t, int64(3), logs)
}
