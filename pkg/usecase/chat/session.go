package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/intellica/pkg/adapter"
	"github.com/m-mizutani/intellica/pkg/model"
	"github.com/m-mizutani/intellica/pkg/usecase/history"
	"github.com/m-mizutani/intellica/pkg/utils/logging"
)

var (
	// ErrEmptyQuery and ErrBusy reject a submission without changing any state
	ErrEmptyQuery = goerr.New("query is empty")
	ErrBusy       = goerr.New("another query is in flight")
)

// Session is the active conversation and the operations that move conversations in
// and out of the history archive
type Session struct {
	agent    adapter.Agent
	feedback adapter.FeedbackReporter
	archive  *history.Archive
	settings *Settings

	mu       sync.Mutex
	activeID model.SessionID
	threadID model.ThreadID
	messages []*model.Message
	pending  string
	loading  bool
	// epoch changes whenever the buffer is replaced, so a late reply can tell it lost its buffer
	epoch uint64

	reports sync.WaitGroup
}

// NewInput contains parameters for creating a new chat session
type NewInput struct {
	Agent    adapter.Agent
	Feedback adapter.FeedbackReporter // Optional: ratings are kept local only when nil
	Archive  *history.Archive         // Optional: an empty archive is created when nil
	Settings *Settings                // Optional: defaults when nil
}

func New(input NewInput) *Session {
	s := &Session{
		agent:    input.Agent,
		feedback: input.Feedback,
		archive:  input.Archive,
		settings: input.Settings,
		threadID: model.NewThreadID(),
	}
	if s.archive == nil {
		s.archive = history.New()
	}
	if s.settings == nil {
		s.settings = NewSettings()
	}
	return s
}

// Submit sends text to the agent. The user message is appended at once and the agent
// reply, or an error placeholder when the exchange fails, when it settles.
// ErrEmptyQuery and ErrBusy are returned without any state change.
func (s *Session) Submit(ctx context.Context, text string) (*model.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil, ErrBusy
	}

	req := &model.AgentRequest{
		Query:        text,
		ThreadID:     s.threadID,
		CriticalMode: s.settings.CriticalMode(),
		ChatHistory:  model.NewHistory(s.messages),
	}
	s.messages = append(s.messages, model.NewUserMessage(text))
	s.loading = true
	s.pending = ""
	epoch := s.epoch
	s.mu.Unlock()

	logger := logging.From(ctx).With("thread_id", req.ThreadID)
	logger.Debug("sending query", "query", text, "critical_mode", req.CriticalMode)

	var reply *model.Message
	resp, err := s.agent.Query(ctx, req)
	if err != nil {
		logger.Error("agent exchange failed", "error", err)
		reply = model.NewErrorMessage()
	} else {
		reply = model.NewAgentMessage(resp)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if s.epoch != epoch {
		logger.Warn("conversation was replaced before the agent replied, discarding reply")
		return reply.Clone(), nil
	}
	s.messages = append(s.messages, reply)

	return reply.Clone(), nil
}

// StartNew archives a non-empty conversation and starts an empty one on a new thread
func (s *Session) StartNew(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) > 0 {
		entry := s.archive.Archive(s.snapshotLocked(), "")
		logging.From(ctx).Debug("archived conversation", "session_id", entry.ID, "title", entry.Title)
	}

	s.messages = nil
	s.activeID = ""
	s.threadID = model.NewThreadID()
	s.pending = ""
	s.epoch++
}

// Load makes an archived session the active conversation. The current conversation,
// if not empty, is archived first. It returns false if id is not archived.
func (s *Session) Load(ctx context.Context, id model.SessionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.archive.Get(id)
	if target == nil {
		return false
	}

	if len(s.messages) > 0 {
		s.archive.Archive(s.snapshotLocked(), id)
	} else {
		s.archive.Remove(id)
	}

	s.activeID = target.ID
	s.threadID = target.ThreadID
	if s.threadID == "" {
		s.threadID = model.NewThreadID()
	}
	s.messages = target.Messages
	s.epoch++

	logging.From(ctx).Debug("loaded conversation", "session_id", id, "messages", len(s.messages))
	return true
}

// Feedback toggles value on an agent message and reports the resulting rating.
// It returns false when the message does not exist or cannot be rated.
func (s *Session) Feedback(ctx context.Context, id model.MessageID, value model.Feedback) (model.Feedback, bool) {
	logger := logging.From(ctx)

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 || !s.messages[idx].AcceptsFeedback() {
		s.mu.Unlock()
		return model.FeedbackNone, false
	}

	msg := s.messages[idx]
	next, err := msg.Feedback.Toggle(value)
	if err != nil {
		s.mu.Unlock()
		logger.Warn("ignored feedback", "error", err)
		return msg.Feedback, false
	}
	msg.Feedback = next

	report := &model.FeedbackReport{
		Query:    s.queryOfLocked(idx),
		Response: msg.Content,
		Feedback: next,
	}
	s.mu.Unlock()

	if next != model.FeedbackNone && s.feedback != nil {
		s.reports.Add(1)
		go func() {
			defer s.reports.Done()
			if err := s.feedback.ReportFeedback(context.WithoutCancel(ctx), report); err != nil {
				logger.Warn("failed to report feedback", "error", err, "message_id", id)
			}
		}()
	}

	return next, true
}

// Wait blocks until every feedback report has been sent or has failed
func (s *Session) Wait() {
	s.reports.Wait()
}

// GenerateReport asks the agent for a PDF report of the active conversation
func (s *Session) GenerateReport(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	req := &model.ReportRequest{ChatHistory: model.NewHistory(s.messages)}
	s.mu.Unlock()

	pdf, err := s.agent.GenerateReport(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate report", goerr.V("messages", len(req.ChatHistory)))
	}
	return pdf, nil
}

// Messages returns a copy of the active conversation
func (s *Session) Messages() []*model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneMessages(s.messages)
}

// Message returns a copy of one message of the active conversation, or nil
func (s *Session) Message(id model.MessageID) *model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexLocked(id); idx >= 0 {
		return s.messages[idx].Clone()
	}
	return nil
}

// LastAgentMessage returns a copy of the most recent agent message, or nil
func (s *Session) LastAgentMessage() *model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == model.RoleAgent {
			return s.messages[i].Clone()
		}
	}
	return nil
}

// ActiveID is the archive id of the loaded session, empty for a new conversation
func (s *Session) ActiveID() model.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

func (s *Session) ThreadID() model.ThreadID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadID
}

// Loading reports whether a query exchange is in flight
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// SetPending stores text typed but not submitted yet
func (s *Session) SetPending(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = text
}

func (s *Session) Pending() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Session) Archive() *history.Archive {
	return s.archive
}

func (s *Session) Settings() *Settings {
	return s.settings
}

func (s *Session) snapshotLocked() history.Snapshot {
	return history.Snapshot{
		ID:       s.activeID,
		ThreadID: s.threadID,
		Messages: s.messages,
	}
}

func (s *Session) indexLocked(id model.MessageID) int {
	for i, m := range s.messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// queryOfLocked returns the content of the user message preceding messages[idx]
func (s *Session) queryOfLocked(idx int) string {
	for i := idx - 1; i >= 0; i-- {
		if s.messages[i].Role == model.RoleUser {
			return s.messages[i].Content
		}
	}
	return ""
}
