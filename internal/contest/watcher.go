package contest

import (
	"context"
	"time"

	"github.com/codearena/codearena/internal/database"
	"github.com/codearena/codearena/internal/database/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Watcher owns the authoritative timing window for one (contest, user) pair.
// It recomputes the window from a pure resolution function whenever its
// deadline timer fires or a change notification arrives, and emits each
// transition on Updates. When a virtual session expires it advances the
// session to FINISHED itself before falling back to the real contest state,
// without waiting for another notification round-trip.
type Watcher struct {
	db      *gorm.DB
	contest *Contest
	userID  string

	notify  chan struct{}
	updates chan Window
}

func NewWatcher(db *gorm.DB, c *Contest, userID string) *Watcher {
	return &Watcher{
		db:      db,
		contest: c,
		userID:  userID,
		notify:  make(chan struct{}, 1),
		updates: make(chan Window, 8),
	}
}

// Poke tells the watcher that the underlying records may have changed,
// e.g. a virtual session was started or ended by the user.
func (w *Watcher) Poke() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Updates delivers the window after every transition, starting with the
// initial resolution.
func (w *Watcher) Updates() <-chan Window {
	return w.updates
}

// Run drives the watcher until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.updates)

	current, ok := w.resolve(time.Now())
	if !ok {
		return
	}
	w.emit(ctx, current)

	timer := time.NewTimer(w.untilDeadline(current))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.notify:

		case <-timer.C:
			if current.Phase == PhaseVirtual {
				// Close out the expired session first so the recompute
				// below falls through to the real contest's timing.
				if err := database.FinishVirtualParticipation(w.db, w.contest.ID, w.userID); err != nil {
					zap.S().Errorf("failed to finish virtual participation for contest %s user %s: %v",
						w.contest.ID, w.userID, err)
				}
			}
		}

		next, ok := w.resolve(time.Now())
		if !ok {
			return
		}
		if next != current {
			current = next
			w.emit(ctx, current)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.untilDeadline(current))
	}
}

func (w *Watcher) resolve(now time.Time) (Window, bool) {
	vp, err := database.GetVirtualParticipation(w.db, w.contest.ID, w.userID)
	if err != nil {
		zap.S().Errorf("failed to read virtual participation for contest %s user %s: %v",
			w.contest.ID, w.userID, err)
		return Window{}, false
	}
	if vp != nil && vp.Status != models.VirtualOngoing {
		vp = nil
	}
	return ResolveForContest(w.contest, vp, now), true
}

func (w *Watcher) emit(ctx context.Context, win Window) {
	select {
	case w.updates <- win:
	case <-ctx.Done():
	}
}

func (w *Watcher) untilDeadline(win Window) time.Duration {
	if win.Phase == PhaseEnded || win.Deadline.IsZero() {
		// No further transition; park the timer far out.
		return 24 * time.Hour
	}
	d := time.Until(win.Deadline)
	if d < 0 {
		d = 0
	}
	return d
}
