package model

// HistoryEntry is one prior turn sent along with a query or a report request
type HistoryEntry struct {
	Role    Role     `json:"role"`
	Content string   `json:"content"`
	Sources []Source `json:"sources,omitempty"`
}

// NewHistory converts buffer messages to the wire representation of chat_history
func NewHistory(messages []*Message) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, HistoryEntry{
			Role:    m.Role,
			Content: m.Content,
			Sources: m.Sources,
		})
	}
	return entries
}

// AgentRequest is the body of a query exchange
type AgentRequest struct {
	Query        string         `json:"query"`
	ThreadID     ThreadID       `json:"thread_id"`
	CriticalMode bool           `json:"critical_mode"`
	ChatHistory  []HistoryEntry `json:"chat_history,omitempty"`
}

// AgentResponse is a normalized agent reply. Sources and Suggestions are never nil.
type AgentResponse struct {
	Answer      string
	Sources     []Source
	Suggestions []string
}

// RawAgentResponse is the reply as it comes over the wire. Optional fields may be absent.
type RawAgentResponse struct {
	Answer      string   `json:"answer"`
	Response    string   `json:"response"`
	Sources     []Source `json:"sources"`
	Suggestions []string `json:"suggestions"`
}

// Normalize fills absent optional fields with explicit empty values
func (r *RawAgentResponse) Normalize() *AgentResponse {
	resp := &AgentResponse{
		Answer:      r.Answer,
		Sources:     []Source{},
		Suggestions: []string{},
	}
	if resp.Answer == "" {
		resp.Answer = r.Response
	}
	resp.Sources = append(resp.Sources, r.Sources...)
	for _, s := range r.Suggestions {
		if s != "" {
			resp.Suggestions = append(resp.Suggestions, s)
		}
	}
	return resp
}

// FeedbackReport is the body of a feedback exchange
type FeedbackReport struct {
	Query    string   `json:"query"`
	Response string   `json:"response"`
	Feedback Feedback `json:"feedback"`
}

// ReportRequest is the body of a report generation exchange
type ReportRequest struct {
	ChatHistory []HistoryEntry `json:"chat_history"`
}
