package judge

import (
	"path/filepath"
	"testing"
	"time"

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

func getEntry(t *testing.T, db *gorm.DB, contestID, userID string) models.LeaderboardEntry {
	t.Helper()
	var entry models.LeaderboardEntry
	require.NoError(t, db.Where("contest_id = ? AND user_id = ?", contestID, userID).First(&entry).Error)
	return entry
}

func TestReconcilerFirstTouchCreation(t *testing.T) {
	db := newTestDB(t)
	rec := NewReconciler(db)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	err := rec.Apply(Verdict{
		ContestID: "c1", UserID: "u1", ProblemID: "p1",
		Accepted: true, Track: TrackReal,
		TrackStart: start, SubmittedAt: start.Add(10 * time.Minute),
	})
	require.NoError(t, err)

	entry := getEntry(t, db, "c1", "u1")
	assert.Equal(t, 1, entry.AcceptedCount)
	assert.Equal(t, 10, entry.Penalty)
	assert.True(t, entry.AttemptedProblems["p1"])
	assert.Equal(t, 10, entry.AcceptedProblems["p1"].PenaltyMinutes)
}

func TestReconcilerPenaltyWithPriorWrongSubmissions(t *testing.T) {
	db := newTestDB(t)
	rec := NewReconciler(db)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// One wrong submission at T+5, accepted at T+10: penalty is
	// 10 elapsed + 20 for the wrong attempt.
	require.NoError(t, rec.Apply(Verdict{
		ContestID: "c1", UserID: "u1", ProblemID: "p1",
		Accepted: false, Track: TrackReal,
		TrackStart: start, SubmittedAt: start.Add(5 * time.Minute),
	}))
	require.NoError(t, rec.Apply(Verdict{
		ContestID: "c1", UserID: "u1", ProblemID: "p1",
		Accepted: true, Track: TrackReal,
		TrackStart: start, SubmittedAt: start.Add(10 * time.Minute),
	}))

	entry := getEntry(t, db, "c1", "u1")
	assert.Equal(t, 1, entry.AcceptedCount)
	assert.Equal(t, 30, entry.Penalty)
	assert.Equal(t, 1, entry.WrongSubmissions["p1"])
}

func TestReconcilerIdempotentAcceptance(t *testing.T) {
	db := newTestDB(t)
	rec := NewReconciler(db)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	accepted := Verdict{
		ContestID: "c1", UserID: "u1", ProblemID: "p1",
		Accepted: true, Track: TrackReal,
		TrackStart: start, SubmittedAt: start.Add(10 * time.Minute),
	}
	require.NoError(t, rec.Apply(accepted))
	first := getEntry(t, db, "c1", "u1")

	// A later accepted verdict for the same problem must change nothing,
	// not even via its wrong-submission counter.
	later := accepted
	later.SubmittedAt = start.Add(40 * time.Minute)
	require.NoError(t, rec.Apply(later))
	require.NoError(t, rec.Apply(Verdict{
		ContestID: "c1", UserID: "u1", ProblemID: "p1",
		Accepted: false, Track: TrackReal,
		TrackStart: start, SubmittedAt: start.Add(41 * time.Minute),
	}))

	second := getEntry(t, db, "c1", "u1")
	assert.Equal(t, first.AcceptedCount, second.AcceptedCount)
	assert.Equal(t, first.Penalty, second.Penalty)
	assert.Equal(t, first.AcceptedProblems["p1"], second.AcceptedProblems["p1"])
	assert.Equal(t, first.WrongSubmissions["p1"], second.WrongSubmissions["p1"])
}

func TestReconcilerWrongSubmissionsAccumulate(t *testing.T) {
	db := newTestDB(t)
	rec := NewReconciler(db)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, rec.Apply(Verdict{
			ContestID: "c1", UserID: "u1", ProblemID: "p1",
			Accepted: false, Track: TrackReal,
			TrackStart: start, SubmittedAt: start.Add(time.Duration(i) * time.Minute),
		}))
	}

	entry := getEntry(t, db, "c1", "u1")
	assert.Equal(t, 0, entry.AcceptedCount)
	assert.Equal(t, 0, entry.Penalty)
	assert.Equal(t, 3, entry.WrongSubmissions["p1"])
	assert.True(t, entry.AttemptedProblems["p1"])
}

func TestReconcilerNegativeElapsedClampsToZero(t *testing.T) {
	db := newTestDB(t)
	rec := NewReconciler(db)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, rec.Apply(Verdict{
		ContestID: "c1", UserID: "u1", ProblemID: "p1",
		Accepted: true, Track: TrackReal,
		TrackStart: start, SubmittedAt: start.Add(-2 * time.Minute),
	}))

	entry := getEntry(t, db, "c1", "u1")
	assert.Equal(t, 0, entry.Penalty)
}

func TestReconcilerVirtualTrack(t *testing.T) {
	db := newTestDB(t)
	rec := NewReconciler(db)
	vpStart := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	_, err := database.StartVirtualParticipation(db, "c1", "u1", vpStart)
	require.NoError(t, err)

	require.NoError(t, rec.Apply(Verdict{
		ContestID: "c1", UserID: "u1", ProblemID: "p2",
		Accepted: true, Track: TrackVirtual,
		TrackStart: vpStart, SubmittedAt: vpStart.Add(25 * time.Minute),
	}))

	vp, err := database.GetVirtualParticipation(db, "c1", "u1")
	require.NoError(t, err)
	require.NotNil(t, vp)
	assert.Equal(t, 1, vp.AcceptedCount)
	assert.Equal(t, 25, vp.Penalty)

	// The virtual track never touches the official leaderboard.
	var count int64
	db.Model(&models.LeaderboardEntry{}).Count(&count)
	assert.Zero(t, count)
}

func TestReconcilerVirtualTrackRequiresSession(t *testing.T) {
	db := newTestDB(t)
	rec := NewReconciler(db)

	err := rec.Apply(Verdict{
		ContestID: "c1", UserID: "u1", ProblemID: "p1",
		Accepted: true, Track: TrackVirtual,
		TrackStart: time.Now(), SubmittedAt: time.Now(),
	})
	assert.Error(t, err)
}

func TestReconcilerSeparateProblemsScoreIndependently(t *testing.T) {
	db := newTestDB(t)
	rec := NewReconciler(db)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, rec.Apply(Verdict{
		ContestID: "c1", UserID: "u1", ProblemID: "p1",
		Accepted: false, Track: TrackReal,
		TrackStart: start, SubmittedAt: start.Add(5 * time.Minute),
	}))
	require.NoError(t, rec.Apply(Verdict{
		ContestID: "c1", UserID: "u1", ProblemID: "p2",
		Accepted: true, Track: TrackReal,
		TrackStart: start, SubmittedAt: start.Add(20 * time.Minute),
	}))

	entry := getEntry(t, db, "c1", "u1")
	assert.Equal(t, 1, entry.AcceptedCount)
	// p1's wrong submission must not leak into p2's penalty.
	assert.Equal(t, 20, entry.Penalty)
}
