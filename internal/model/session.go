package model

import "time"

// SessionStatus is the lifecycle state of a cleaning session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusStopped   SessionStatus = "stopped"
	StatusCompleted SessionStatus = "completed"
)

// SessionDateLayout is the calendar-day format used for SessionDate.
const SessionDateLayout = "2006-01-02"

// PropertySnapshot is the identity of a property captured when a session starts.
type PropertySnapshot struct {
	ID       string `json:"id"`
	RecordID string `json:"recordId"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Blocked  bool   `json:"blocked"`
}

// CleanerSnapshot is the display identity of a cleaner.
type CleanerSnapshot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CleaningSession is one cleaner's work episode at one property.
//
// StartTime marks the start of the current segment only. AccumulatedDuration
// holds every earlier segment and excludes the running one while active.
// The helper fields form a second, independent timer with the same shape.
type CleaningSession struct {
	ID                        string           `json:"id"`
	PropertyID                string           `json:"propertyId"`
	CleanerID                 string           `json:"cleanerId"`
	StartTime                 time.Time        `json:"startTime"`
	AccumulatedDuration       Millis           `json:"accumulatedDuration"`
	Status                    SessionStatus    `json:"status"`
	Consumables               map[string]int   `json:"consumables"`
	HelperStartTime           *time.Time       `json:"helperStartTime,omitempty"`
	HelperAccumulatedDuration Millis           `json:"helperAccumulatedDuration"`
	HelperActive              bool             `json:"helperActive"`
	PropertySnapshot          PropertySnapshot `json:"propertySnapshot"`
	SessionDate               string           `json:"sessionDate,omitempty"`
	EndTime                   *time.Time       `json:"endTime,omitempty"`
}

// Clone returns a deep copy so callers never share maps or pointers with the owner.
func (s *CleaningSession) Clone() *CleaningSession {
	if s == nil {
		return nil
	}
	c := *s
	if s.Consumables != nil {
		c.Consumables = make(map[string]int, len(s.Consumables))
		for k, v := range s.Consumables {
			c.Consumables[k] = v
		}
	}
	if s.HelperStartTime != nil {
		t := *s.HelperStartTime
		c.HelperStartTime = &t
	}
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	return &c
}

// SyncStatus tracks delivery of a completed session to the booking system.
type SyncStatus string

const (
	// SyncPending means the first delivery attempt has not finished.
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	// SyncFailed covers both failed attempts and sessions never attempted.
	SyncFailed SyncStatus = "failed"
)

// CompletedSession is the immutable record of a finished session. Only the
// sync fields change after creation.
type CompletedSession struct {
	CleaningSession
	// Duration is cleaner time plus helper time.
	Duration   Millis           `json:"duration"`
	Property   PropertySnapshot `json:"property"`
	Cleaner    CleanerSnapshot  `json:"cleaner"`
	SyncStatus SyncStatus       `json:"syncStatus"`
	SyncError  string           `json:"syncError,omitempty"`
	SyncedAt   *time.Time       `json:"syncedAt,omitempty"`
}

// Clone returns a deep copy of the record.
func (c *CompletedSession) Clone() *CompletedSession {
	if c == nil {
		return nil
	}
	out := *c
	out.CleaningSession = *c.CleaningSession.Clone()
	if c.SyncedAt != nil {
		t := *c.SyncedAt
		out.SyncedAt = &t
	}
	return &out
}
