package contest

import (
	"regexp"
	"strings"
	"time"

	"github.com/codearena/codearena/internal/database/models"
	"go.uber.org/zap"
)

// Phase is the timing context of a (contest, user) pair. Exactly one phase
// applies at any instant; an ONGOING virtual participation outranks the real
// contest's own timing.
type Phase string

const (
	PhaseUpcoming Phase = "UPCOMING"
	PhaseReal     Phase = "REAL"
	PhaseVirtual  Phase = "VIRTUAL"
	PhaseEnded    Phase = "ENDED"
)

// Window is the resolved phase plus the instant of the next transition.
// Deadline is zero for ENDED, which has no further timer.
type Window struct {
	Phase    Phase     `json:"phase"`
	Deadline time.Time `json:"deadline"`
}

var (
	utcOffsetRe = regexp.MustCompile(`UTC([+-])(\d{1,2})(?::(\d{2}))?`)

	startTimeLayouts = []string{
		"January 2, 2006 3:04:05 PM -0700",
		"January 2, 2006 3:04:05PM -0700",
		"January 2, 2006 15:04:05 -0700",
		"January 2, 2006 3:04:05 PM",
		"January 2, 2006 15:04:05",
		time.RFC3339,
		"2006-01-02 15:04:05 -0700",
		"2006-01-02 15:04:05",
	}
)

// ParseStartTime parses the loosely formatted contest start time, e.g.
// "November 25, 2025 at 2:59:46 PM UTC+7". Unparseable input degrades to now
// rather than failing, which biases toward REAL/ENDED over UPCOMING.
func ParseStartTime(raw string, now time.Time) time.Time {
	s := strings.NewReplacer(" ", " ", " ", " ").Replace(raw)
	s = strings.ReplaceAll(s, " at ", " ")
	s = utcOffsetRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := utcOffsetRe.FindStringSubmatch(match)
		sign, hours, minutes := parts[1], parts[2], parts[3]
		if len(hours) == 1 {
			hours = "0" + hours
		}
		if minutes == "" {
			minutes = "00"
		}
		return sign + hours + minutes
	})
	s = strings.Join(strings.Fields(s), " ")

	for _, layout := range startTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	zap.S().Warnf("unparseable contest start time %q, falling back to current time", raw)
	return now
}

// Resolve derives the timing window for one (contest, user) pair. The
// priority table is fixed: an ONGOING virtual participation wins over every
// real-contest state; otherwise the real window decides.
func Resolve(start time.Time, lengthMinutes int, vp *models.VirtualParticipation, now time.Time) Window {
	length := time.Duration(lengthMinutes) * time.Minute

	if vp != nil && vp.Status == models.VirtualOngoing {
		return Window{Phase: PhaseVirtual, Deadline: vp.StartedAt.Add(length)}
	}

	end := start.Add(length)
	switch {
	case now.Before(start):
		return Window{Phase: PhaseUpcoming, Deadline: start}
	case now.Before(end):
		return Window{Phase: PhaseReal, Deadline: end}
	default:
		return Window{Phase: PhaseEnded}
	}
}

// ResolveForContest is Resolve with the contest's raw start time parsed in.
func ResolveForContest(c *Contest, vp *models.VirtualParticipation, now time.Time) Window {
	start := ParseStartTime(c.StartTimeRaw, now)
	return Resolve(start, c.LengthMinutes, vp, now)
}
