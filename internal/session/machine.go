package session

import (
	"context"
	"math"
	"time"

	"cleaning-session-backend/internal/model"
)

// Start creates a running session for the cleaner at the property. It fails
// with ErrCleanerBusy while the cleaner has any other running session.
func (m *Manager) Start(ctx context.Context, propertyID, cleanerID string, property model.PropertySnapshot) (*model.CleaningSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasActiveLocked(cleanerID, "") {
		return nil, ErrCleanerBusy
	}

	now := m.now()
	consumables := make(map[string]int, len(m.itemIDs))
	for _, id := range m.itemIDs {
		consumables[id] = 0
	}

	s := &model.CleaningSession{
		ID:               m.newIDLocked(now, cleanerID),
		PropertyID:       propertyID,
		CleanerID:        cleanerID,
		StartTime:        now,
		Status:           model.StatusActive,
		Consumables:      consumables,
		PropertySnapshot: property,
		SessionDate:      now.Local().Format(model.SessionDateLayout),
	}
	m.sessions[s.ID] = s
	m.order = append(m.order, s.ID)
	m.persistLocked(ctx)
	return s.Clone(), nil
}

// Stop folds the open segment into the accumulated duration. Stopping the
// primary timer also stops a running helper.
func (m *Manager) Stop(ctx context.Context, id string) (*model.CleaningSession, error) {
	return m.mutate(ctx, id, func(s *model.CleaningSession, now time.Time) error {
		if s.Status != model.StatusActive {
			return ErrInvalidState
		}
		s.AccumulatedDuration += model.Millis(now.Sub(s.StartTime))
		s.Status = model.StatusStopped
		if s.HelperActive {
			stopHelper(s, now)
		}
		return nil
	})
}

// Restart opens a new segment on a stopped session. Accumulated durations and
// the helper timer are left alone.
func (m *Manager) Restart(ctx context.Context, id string) (*model.CleaningSession, error) {
	return m.mutate(ctx, id, func(s *model.CleaningSession, now time.Time) error {
		if s.Status != model.StatusStopped {
			return ErrInvalidState
		}
		if m.hasActiveLocked(s.CleanerID, s.ID) {
			return ErrCleanerBusy
		}
		s.StartTime = now
		s.Status = model.StatusActive
		return nil
	})
}

// StartHelper starts the helper timer regardless of the primary timer.
// Calling it while the helper is already running restarts the segment and
// drops the time since the previous start; callers must guard against that.
func (m *Manager) StartHelper(ctx context.Context, id string) (*model.CleaningSession, error) {
	return m.mutate(ctx, id, func(s *model.CleaningSession, now time.Time) error {
		startHelper(s, now)
		return nil
	})
}

// StartIdleHelper is StartHelper with the guard applied under the lock: it
// fails with ErrHelperRunning instead of restarting a running helper.
func (m *Manager) StartIdleHelper(ctx context.Context, id string) (*model.CleaningSession, error) {
	return m.mutate(ctx, id, func(s *model.CleaningSession, now time.Time) error {
		if s.HelperActive {
			return ErrHelperRunning
		}
		startHelper(s, now)
		return nil
	})
}

func startHelper(s *model.CleaningSession, now time.Time) {
	t := now
	s.HelperStartTime = &t
	s.HelperActive = true
}

// StopHelper folds the open helper segment into the helper total.
func (m *Manager) StopHelper(ctx context.Context, id string) (*model.CleaningSession, error) {
	return m.mutate(ctx, id, func(s *model.CleaningSession, now time.Time) error {
		if s.HelperStartTime == nil {
			return ErrInvalidState
		}
		stopHelper(s, now)
		return nil
	})
}

func stopHelper(s *model.CleaningSession, now time.Time) {
	if s.HelperStartTime != nil {
		s.HelperAccumulatedDuration += model.Millis(now.Sub(*s.HelperStartTime))
	}
	s.HelperActive = false
	s.HelperStartTime = nil
}

// maxAdjustMinutes is the largest adjustment whose duration fits in an int64.
const maxAdjustMinutes = math.MaxInt64 / int64(time.Minute)

func minutesDelta(minutes int) (time.Duration, error) {
	if int64(minutes) > maxAdjustMinutes || int64(minutes) < -maxAdjustMinutes {
		return 0, ErrOutOfRange
	}
	return time.Duration(minutes) * time.Minute, nil
}

// addDurations returns a+b, or ErrOutOfRange when the sum overflows.
func addDurations(a, b time.Duration) (time.Duration, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, ErrOutOfRange
	}
	return sum, nil
}

// AdjustCleanerTime adds minutes (possibly negative) to the cleaner time.
// A running session moves its segment start instead of touching the total.
func (m *Manager) AdjustCleanerTime(ctx context.Context, id string, minutes int) (*model.CleaningSession, error) {
	delta, err := minutesDelta(minutes)
	if err != nil {
		return nil, err
	}
	return m.mutate(ctx, id, func(s *model.CleaningSession, now time.Time) error {
		switch s.Status {
		case model.StatusActive:
			open, err := addDurations(now.Sub(s.StartTime), delta)
			if err != nil {
				return err
			}
			total, err := addDurations(s.AccumulatedDuration.Duration(), open)
			if err != nil {
				return err
			}
			if total < 0 {
				return ErrNegativeDuration
			}
			s.StartTime = now.Add(-open)
		case model.StatusStopped:
			total, err := addDurations(s.AccumulatedDuration.Duration(), delta)
			if err != nil {
				return err
			}
			if total < 0 {
				return ErrNegativeDuration
			}
			s.AccumulatedDuration = model.Millis(total)
		default:
			return ErrInvalidState
		}
		return nil
	})
}

// AdjustHelperTime adds minutes to the helper total and leaves the helper
// stopped. A running helper segment is discarded, not folded in.
func (m *Manager) AdjustHelperTime(ctx context.Context, id string, minutes int) (*model.CleaningSession, error) {
	delta, err := minutesDelta(minutes)
	if err != nil {
		return nil, err
	}
	return m.mutate(ctx, id, func(s *model.CleaningSession, _ time.Time) error {
		total, err := addDurations(s.HelperAccumulatedDuration.Duration(), delta)
		if err != nil {
			return err
		}
		if total < 0 {
			return ErrNegativeDuration
		}
		s.HelperAccumulatedDuration = model.Millis(total)
		s.HelperActive = false
		s.HelperStartTime = nil
		return nil
	})
}

// UpdateConsumables merges quantities into the session's consumables.
// Items absent from update keep their current quantity.
func (m *Manager) UpdateConsumables(ctx context.Context, id string, update map[string]int) (*model.CleaningSession, error) {
	for _, qty := range update {
		if qty < 0 {
			return nil, ErrNegativeQuantity
		}
	}
	return m.mutate(ctx, id, func(s *model.CleaningSession, _ time.Time) error {
		if s.Consumables == nil {
			s.Consumables = make(map[string]int, len(update))
		}
		for item, qty := range update {
			s.Consumables[item] = qty
		}
		return nil
	})
}

// Complete closes both timers at end, marks the session completed and
// removes it from the active set. The returned session is detached; nothing
// in the manager references it afterwards.
func (m *Manager) Complete(ctx context.Context, id string, end time.Time) (*model.CleaningSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	if s.Status == model.StatusActive {
		s.AccumulatedDuration += model.Millis(end.Sub(s.StartTime))
	}
	if s.HelperActive && s.HelperStartTime != nil {
		s.HelperAccumulatedDuration += model.Millis(end.Sub(*s.HelperStartTime))
	}
	s.HelperActive = false
	s.HelperStartTime = nil
	s.Status = model.StatusCompleted
	endTime := end
	s.EndTime = &endTime

	delete(m.sessions, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.persistLocked(ctx)
	return s, nil
}
