// Package completion turns finished cleaning sessions into durable completed
// records and delivers them to the booking system at least once.
//
// Delivery is at-least-once, not exactly-once: if the booking system applies
// a submission but the reply is lost, the record stays failed and the next
// sweep submits it again, double counting on the remote side. There is no
// idempotency key in the remote contract to prevent that.
package completion

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"cleaning-session-backend/internal/booking"
	"cleaning-session-backend/internal/kv"
	"cleaning-session-backend/internal/model"
)

// ErrNotCompleted is returned when a session without an end time is submitted.
var ErrNotCompleted = errors.New("session has no end time")

// Remote is the booking system as seen by the pipeline.
type Remote interface {
	Configured() bool
	SubmitSession(ctx context.Context, p booking.SessionPayload) booking.SyncResult
}

// SweepResult counts the outcome of a retry sweep.
type SweepResult struct {
	Total  int `json:"total"`
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

// Pipeline owns the completed-session list, newest first. The list is
// persisted as a whole after every change.
type Pipeline struct {
	mu       sync.Mutex
	sweepMu  sync.Mutex
	store    kv.Store
	remote   Remote
	now      func() time.Time
	sessions []*model.CompletedSession
}

// NewPipeline creates an empty pipeline. Call Load to hydrate it.
func NewPipeline(store kv.Store, remote Remote) *Pipeline {
	return &Pipeline{
		store:  store,
		remote: remote,
		now:    time.Now,
	}
}

// SetClock replaces the time source.
func (p *Pipeline) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// Load reads the persisted list. Records left pending by an interrupted
// first attempt are marked failed so the next sweep picks them up.
func (p *Pipeline) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var stored []*model.CompletedSession
	if _, err := p.store.GetObject(ctx, kv.KeyCompletedSessions, &stored); err != nil {
		log.Printf("Warning: could not load completed sessions, starting empty: %v", err)
		stored = nil
	}

	p.sessions = p.sessions[:0]
	interrupted := 0
	for _, cs := range stored {
		if cs == nil || cs.ID == "" {
			continue
		}
		if cs.SyncStatus == "" || cs.SyncStatus == model.SyncPending {
			cs.SyncStatus = model.SyncFailed
			if cs.SyncError == "" {
				cs.SyncError = "sync interrupted before a response was received"
			}
			interrupted++
		}
		p.sessions = append(p.sessions, cs)
	}

	if interrupted > 0 {
		log.Printf("Marked %d interrupted completed sessions for retry", interrupted)
		p.persistLocked(ctx)
	}
	log.Printf("Loaded %d completed sessions", len(p.sessions))
	return nil
}

// Add records a completed session and attempts delivery. The record is
// persisted before the network call, so it survives any delivery outcome.
func (p *Pipeline) Add(ctx context.Context, s *model.CleaningSession, property model.PropertySnapshot, cleaner model.CleanerSnapshot) (*model.CompletedSession, error) {
	if s == nil || s.EndTime == nil {
		return nil, ErrNotCompleted
	}

	rec := &model.CompletedSession{
		CleaningSession: *s.Clone(),
		Duration:        s.AccumulatedDuration + s.HelperAccumulatedDuration,
		Property:        property,
		Cleaner:         cleaner,
		SyncStatus:      model.SyncPending,
	}
	rec.Status = model.StatusCompleted

	configured := p.remote != nil && p.remote.Configured()
	if !configured {
		rec.SyncStatus = model.SyncFailed
	}

	p.mu.Lock()
	p.sessions = append([]*model.CompletedSession{rec}, p.sessions...)
	p.persistLocked(ctx)
	out := rec.Clone()
	p.mu.Unlock()

	if !configured {
		log.Printf("Booking system not configured; session %s stored for later sync", rec.ID)
		return out, nil
	}

	result := p.remote.SubmitSession(ctx, payloadFor(out))
	return p.record(ctx, rec.ID, result), nil
}

// SyncAllPending resubmits every failed record one at a time in list order,
// persisting after each. Only one sweep runs at a time.
func (p *Pipeline) SyncAllPending(ctx context.Context) SweepResult {
	p.sweepMu.Lock()
	defer p.sweepMu.Unlock()

	p.mu.Lock()
	var pending []*model.CompletedSession
	for _, cs := range p.sessions {
		if cs.SyncStatus == model.SyncFailed {
			pending = append(pending, cs.Clone())
		}
	}
	p.mu.Unlock()

	res := SweepResult{Total: len(pending)}
	for _, cs := range pending {
		var result booking.SyncResult
		if p.remote == nil {
			result = booking.Failure{Reason: "booking system is not configured"}
		} else {
			result = p.remote.SubmitSession(ctx, payloadFor(cs))
		}
		if updated := p.record(ctx, cs.ID, result); updated != nil && updated.SyncStatus == model.SyncSynced {
			res.Synced++
		} else {
			res.Failed++
		}
	}

	if res.Total > 0 {
		log.Printf("Sync sweep finished: %d total, %d synced, %d failed", res.Total, res.Synced, res.Failed)
	}
	return res
}

// record applies a delivery result to the stored record with the given id.
func (p *Pipeline) record(ctx context.Context, id string, result booking.SyncResult) *model.CompletedSession {
	ok, reason := booking.Outcome(result)

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, cs := range p.sessions {
		if cs.ID != id {
			continue
		}
		if ok {
			now := p.now()
			cs.SyncStatus = model.SyncSynced
			cs.SyncError = ""
			cs.SyncedAt = &now
		} else {
			cs.SyncStatus = model.SyncFailed
			cs.SyncError = reason
			log.Printf("Sync of session %s failed: %s", id, reason)
		}
		p.persistLocked(ctx)
		return cs.Clone()
	}
	return nil
}

func (p *Pipeline) persistLocked(ctx context.Context) {
	if err := p.store.SetObject(ctx, kv.KeyCompletedSessions, p.sessions); err != nil {
		log.Printf("Error persisting %d completed sessions: %v", len(p.sessions), err)
	}
}

func payloadFor(cs *model.CompletedSession) booking.SessionPayload {
	consumables := make(map[string]int, len(cs.Consumables))
	for k, v := range cs.Consumables {
		consumables[k] = v
	}
	return booking.SessionPayload{
		PropertyID:     cs.PropertyID,
		RecordID:       cs.PropertySnapshot.RecordID,
		Duration:       cs.AccumulatedDuration.Duration().Milliseconds(),
		HelperDuration: cs.HelperAccumulatedDuration.Duration().Milliseconds(),
		Consumables:    consumables,
	}
}
