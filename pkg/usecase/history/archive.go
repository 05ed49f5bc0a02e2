package history

import (
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/intellica/pkg/model"
)

// Snapshot is the state of a conversation buffer at archive time
type Snapshot struct {
	ID       model.SessionID // empty when the conversation was never archived
	ThreadID model.ThreadID
	Messages []*model.Message
}

// Archive keeps closed conversations, most recent first
type Archive struct {
	mu          sync.RWMutex
	sessions    []*model.ArchivedSession
	maxSessions int
	now         func() time.Time
}

// Option is a functional option for Archive
type Option func(*Archive)

// WithMaxSessions caps the number of archived sessions. The oldest are evicted first.
// Zero means unbounded.
func WithMaxSessions(n int) Option {
	return func(a *Archive) {
		a.maxSessions = n
	}
}

// WithClock replaces the time source used for ArchivedAt
func WithClock(now func() time.Time) Option {
	return func(a *Archive) {
		a.now = now
	}
}

// New creates an empty archive
func New(opts ...Option) *Archive {
	a := &Archive{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Archive stores a frozen copy of snap at the front of the archive. An entry with the
// same ID is replaced, and the entry with excludeID (if any) is dropped.
func (a *Archive) Archive(snap Snapshot, excludeID model.SessionID) *model.ArchivedSession {
	id := snap.ID
	if id == "" {
		id = model.NewSessionID()
	}

	entry := &model.ArchivedSession{
		ID:         id,
		ThreadID:   snap.ThreadID,
		Title:      model.DeriveTitle(snap.Messages),
		ArchivedAt: a.now(),
		Messages:   model.CloneMessages(snap.Messages),
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	sessions := make([]*model.ArchivedSession, 0, len(a.sessions)+1)
	sessions = append(sessions, entry)
	for _, s := range a.sessions {
		if s.ID == entry.ID || (excludeID != "" && s.ID == excludeID) {
			continue
		}
		sessions = append(sessions, s)
	}

	if a.maxSessions > 0 && len(sessions) > a.maxSessions {
		sessions = sessions[:a.maxSessions]
	}
	a.sessions = sessions

	return entry.Clone()
}

// Search returns sessions whose title or any message contains term, ignoring case.
// An empty term matches everything.
func (a *Archive) Search(term string) []*model.ArchivedSession {
	a.mu.RLock()
	defer a.mu.RUnlock()

	needle := strings.ToLower(term)
	var results []*model.ArchivedSession
	for _, s := range a.sessions {
		if matches(s, needle) {
			results = append(results, s.Clone())
		}
	}
	return results
}

func matches(s *model.ArchivedSession, needle string) bool {
	if needle == "" || strings.Contains(strings.ToLower(s.Title), needle) {
		return true
	}
	for _, m := range s.Messages {
		if strings.Contains(strings.ToLower(m.Content), needle) {
			return true
		}
	}
	return false
}

// List returns all sessions, most recent first
func (a *Archive) List() []*model.ArchivedSession {
	return a.Search("")
}

// Len returns the number of archived sessions
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.sessions)
}

// Get returns a copy of the session, or nil if it is not archived
func (a *Archive) Get(id model.SessionID) *model.ArchivedSession {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if i := a.indexOf(id); i >= 0 {
		return a.sessions[i].Clone()
	}
	return nil
}

// Take removes the session from the archive and returns it
func (a *Archive) Take(id model.SessionID) *model.ArchivedSession {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.indexOf(id)
	if i < 0 {
		return nil
	}
	s := a.sessions[i]
	a.sessions = append(a.sessions[:i:i], a.sessions[i+1:]...)
	return s
}

// Remove deletes one session. It returns false if the id was not archived.
func (a *Archive) Remove(id model.SessionID) bool {
	return a.Take(id) != nil
}

// Clear empties the archive
func (a *Archive) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions = nil
}

// indexOf must be called with the lock held
func (a *Archive) indexOf(id model.SessionID) int {
	for i, s := range a.sessions {
		if s.ID == id {
			return i
		}
	}
	return -1
}
