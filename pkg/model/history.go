package model

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type SessionID string

// NewSessionID generates a new unique SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// ThreadID correlates all queries of one conversation on the agent side
type ThreadID string

// NewThreadID generates a new unique ThreadID
func NewThreadID() ThreadID {
	return ThreadID(uuid.New().String())
}

// TitleLength is the number of characters of the first message kept as a session title
const TitleLength = 30

// ArchivedSession is a frozen snapshot of a former conversation
type ArchivedSession struct {
	ID         SessionID  `json:"id" yaml:"id"`
	ThreadID   ThreadID   `json:"thread_id" yaml:"thread_id"`
	Title      string     `json:"title" yaml:"title"`
	ArchivedAt time.Time  `json:"archived_at" yaml:"archived_at"`
	Messages   []*Message `json:"messages" yaml:"messages"`
}

// Clone returns a deep copy of the session
func (s *ArchivedSession) Clone() *ArchivedSession {
	if s == nil {
		return nil
	}
	cloned := *s
	cloned.Messages = CloneMessages(s.Messages)
	return &cloned
}

// DeriveTitle builds a session title from the first message of a conversation
func DeriveTitle(messages []*Message) string {
	if len(messages) == 0 {
		return ""
	}

	content := messages[0].Content
	if utf8.RuneCountInString(content) <= TitleLength {
		return content
	}
	return string([]rune(content)[:TitleLength]) + "..."
}
