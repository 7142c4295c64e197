package contest

import (
	"context"
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

func waitForWindow(t *testing.T, updates <-chan Window) Window {
	t.Helper()
	select {
	case win, ok := <-updates:
		require.True(t, ok, "updates channel closed")
		return win
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for window update")
		return Window{}
	}
}

func TestWatcherEmitsInitialWindow(t *testing.T) {
	db := newTestDB(t)
	c := &Contest{
		ID:            "c1",
		StartTimeRaw:  time.Now().Add(-5 * time.Minute).UTC().Format("January 2, 2006 3:04:05 PM -0700"),
		LengthMinutes: 60,
	}

	w := NewWatcher(db, c, "u1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	win := waitForWindow(t, w.Updates())
	assert.Equal(t, PhaseReal, win.Phase)
	assert.False(t, win.Deadline.IsZero())
}

func TestWatcherPokePicksUpNewVirtualSession(t *testing.T) {
	db := newTestDB(t)
	c := &Contest{
		ID:            "c1",
		StartTimeRaw:  time.Now().Add(-3 * time.Hour).UTC().Format("January 2, 2006 3:04:05 PM -0700"),
		LengthMinutes: 60,
	}

	w := NewWatcher(db, c, "u1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	win := waitForWindow(t, w.Updates())
	require.Equal(t, PhaseEnded, win.Phase)

	_, err := database.StartVirtualParticipation(db, "c1", "u1", time.Now())
	require.NoError(t, err)
	w.Poke()

	win = waitForWindow(t, w.Updates())
	assert.Equal(t, PhaseVirtual, win.Phase)
}

func TestWatcherFinishesExpiredVirtualSession(t *testing.T) {
	db := newTestDB(t)
	c := &Contest{
		ID:            "c1",
		StartTimeRaw:  time.Now().Add(-3 * time.Hour).UTC().Format("January 2, 2006 3:04:05 PM -0700"),
		LengthMinutes: 1,
	}

	// A session that expires almost immediately.
	_, err := database.StartVirtualParticipation(db, "c1", "u1", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	w := NewWatcher(db, c, "u1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	win := waitForWindow(t, w.Updates())
	require.Equal(t, PhaseVirtual, win.Phase)

	win = waitForWindow(t, w.Updates())
	assert.Equal(t, PhaseEnded, win.Phase)

	vp, err := database.GetVirtualParticipation(db, "c1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.VirtualFinished, vp.Status)
}
