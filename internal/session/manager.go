package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"cleaning-session-backend/internal/kv"
	"cleaning-session-backend/internal/model"
)

// Manager owns the active-session set: every session that has been started
// and not yet completed. Each mutation is written through to the key-value
// store as a whole-list overwrite. Persistence failures are logged and never
// roll back memory, which stays the source of truth for the process lifetime.
type Manager struct {
	mu       sync.Mutex
	store    kv.Store
	now      func() time.Time
	itemIDs  []string
	sessions map[string]*model.CleaningSession
	order    []string
}

// NewManager creates an empty manager. Call Load to hydrate it from storage.
// itemIDs are the consumables every new session starts with at quantity zero.
func NewManager(store kv.Store, itemIDs []string) *Manager {
	return &Manager{
		store:    store,
		now:      time.Now,
		itemIDs:  append([]string(nil), itemIDs...),
		sessions: make(map[string]*model.CleaningSession),
	}
}

// SetClock replaces the time source.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Load replaces the in-memory set with the persisted active-session list.
// Records written before sessionDate existed get it derived from startTime,
// and the migration is persisted immediately. Unreadable data is logged and
// treated as an empty list.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stored []*model.CleaningSession
	found, err := m.store.GetObject(ctx, kv.KeyActiveSessions, &stored)
	if err != nil {
		log.Printf("Warning: could not load active sessions, starting empty: %v", err)
		stored, found = nil, false
	}

	m.sessions = make(map[string]*model.CleaningSession, len(stored))
	m.order = m.order[:0]
	if !found {
		return nil
	}

	migrated := 0
	for _, s := range stored {
		if s == nil || s.ID == "" {
			continue
		}
		if s.SessionDate == "" {
			s.SessionDate = s.StartTime.Local().Format(model.SessionDateLayout)
			migrated++
		}
		if s.Consumables == nil {
			s.Consumables = make(map[string]int, len(m.itemIDs))
		}
		for _, id := range m.itemIDs {
			if _, ok := s.Consumables[id]; !ok {
				s.Consumables[id] = 0
			}
		}
		if _, dup := m.sessions[s.ID]; dup {
			continue
		}
		m.sessions[s.ID] = s
		m.order = append(m.order, s.ID)
	}

	if migrated > 0 {
		log.Printf("Migrated sessionDate on %d stored sessions", migrated)
		m.persistLocked(ctx)
	}
	log.Printf("Loaded %d active sessions", len(m.order))
	return nil
}

// Reset clears every active session from memory and storage.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions = make(map[string]*model.CleaningSession)
	m.order = nil
	if err := m.store.Remove(ctx, kv.KeyActiveSessions); err != nil {
		return fmt.Errorf("failed to clear stored active sessions: %w", err)
	}
	return nil
}

// Get returns a copy of the session with the given id.
func (m *Manager) Get(id string) (*model.CleaningSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Active returns copies of all active and stopped sessions in start order.
func (m *Manager) Active() []*model.CleaningSession {
	return m.filter(func(*model.CleaningSession) bool { return true })
}

// ActiveForProperty returns the sessions in the active set for a property.
func (m *Manager) ActiveForProperty(propertyID string) []*model.CleaningSession {
	return m.filter(func(s *model.CleaningSession) bool { return s.PropertyID == propertyID })
}

// ActiveForCleaner returns the sessions in the active set for a cleaner.
func (m *Manager) ActiveForCleaner(cleanerID string) []*model.CleaningSession {
	return m.filter(func(s *model.CleaningSession) bool { return s.CleanerID == cleanerID })
}

// HasActiveTimer reports whether the cleaner has a session with a running primary timer.
func (m *Manager) HasActiveTimer(cleanerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasActiveLocked(cleanerID, "")
}

func (m *Manager) filter(keep func(*model.CleaningSession) bool) []*model.CleaningSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*model.CleaningSession, 0, len(m.order))
	for _, id := range m.order {
		if s := m.sessions[id]; keep(s) {
			out = append(out, s.Clone())
		}
	}
	return out
}

func (m *Manager) hasActiveLocked(cleanerID, exceptID string) bool {
	for _, s := range m.sessions {
		if s.CleanerID == cleanerID && s.Status == model.StatusActive && s.ID != exceptID {
			return true
		}
	}
	return false
}

// persistLocked overwrites the stored active-session list.
func (m *Manager) persistLocked(ctx context.Context) {
	list := make([]*model.CleaningSession, 0, len(m.order))
	for _, id := range m.order {
		list = append(list, m.sessions[id])
	}
	if err := m.store.SetObject(ctx, kv.KeyActiveSessions, list); err != nil {
		log.Printf("Error persisting %d active sessions: %v", len(list), err)
	}
}

// mutate runs fn on the session under the lock and persists on success.
func (m *Manager) mutate(ctx context.Context, id string, fn func(s *model.CleaningSession, now time.Time) error) (*model.CleaningSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(s, m.now()); err != nil {
		return s.Clone(), err
	}
	m.persistLocked(ctx)
	return s.Clone(), nil
}

func (m *Manager) newIDLocked(now time.Time, cleanerID string) string {
	base := fmt.Sprintf("%d-%s", now.UnixMilli(), cleanerID)
	id := base
	for n := 2; ; n++ {
		if _, taken := m.sessions[id]; !taken {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}
