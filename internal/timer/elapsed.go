// Package timer computes elapsed time for segment-based session timers.
package timer

import (
	"time"

	"cleaning-session-backend/internal/model"
)

// Elapsed returns the cleaner time of s at now. A running session adds its
// open segment to the accumulated total; stopped and completed sessions
// already folded it in.
func Elapsed(s *model.CleaningSession, now time.Time) time.Duration {
	if s == nil {
		return 0
	}
	d := s.AccumulatedDuration.Duration()
	if s.Status == model.StatusActive {
		d += now.Sub(s.StartTime)
	}
	return clamp(d)
}

// HelperElapsed is Elapsed for the helper timer. It returns the frozen
// accumulated value whenever the helper is not running.
func HelperElapsed(s *model.CleaningSession, now time.Time) time.Duration {
	if s == nil {
		return 0
	}
	d := s.HelperAccumulatedDuration.Duration()
	if s.HelperActive && s.HelperStartTime != nil {
		d += now.Sub(*s.HelperStartTime)
	}
	return clamp(d)
}

// Running reports whether either timer of s is ticking.
func Running(s *model.CleaningSession) bool {
	return s != nil && (s.Status == model.StatusActive || s.HelperActive)
}

func clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
