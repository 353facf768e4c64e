package completion

import (
	"time"

	"cleaning-session-backend/internal/model"
)

// All returns every completed session, newest first.
func (p *Pipeline) All() []*model.CompletedSession {
	return p.filter(func(*model.CompletedSession) bool { return true })
}

// Get returns the completed session with the given id.
func (p *Pipeline) Get(id string) (*model.CompletedSession, bool) {
	list := p.filter(func(cs *model.CompletedSession) bool { return cs.ID == id })
	if len(list) == 0 {
		return nil, false
	}
	return list[0], true
}

func (p *Pipeline) ByProperty(propertyID string) []*model.CompletedSession {
	return p.filter(func(cs *model.CompletedSession) bool { return cs.PropertyID == propertyID })
}

func (p *Pipeline) ByCleaner(cleanerID string) []*model.CompletedSession {
	return p.filter(func(cs *model.CompletedSession) bool { return cs.CleanerID == cleanerID })
}

// Today returns sessions whose start time falls on the same local calendar day as now.
func (p *Pipeline) Today(now time.Time) []*model.CompletedSession {
	day := now.Local().Format(model.SessionDateLayout)
	return p.filter(func(cs *model.CompletedSession) bool {
		return cs.StartTime.Local().Format(model.SessionDateLayout) == day
	})
}

// Pending returns sessions not yet confirmed by the booking system.
func (p *Pipeline) Pending() []*model.CompletedSession {
	return p.filter(func(cs *model.CompletedSession) bool { return cs.SyncStatus != model.SyncSynced })
}

func (p *Pipeline) filter(keep func(*model.CompletedSession) bool) []*model.CompletedSession {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*model.CompletedSession, 0, len(p.sessions))
	for _, cs := range p.sessions {
		if keep(cs) {
			out = append(out, cs.Clone())
		}
	}
	return out
}
