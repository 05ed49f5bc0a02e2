package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/intellica/pkg/model"
)

// Agent is the research agent that answers queries
type Agent interface {
	// Query sends one query of a thread and returns the normalized answer
	Query(ctx context.Context, req *model.AgentRequest) (*model.AgentResponse, error)

	// GenerateReport renders a conversation into a PDF document
	GenerateReport(ctx context.Context, req *model.ReportRequest) ([]byte, error)
}

// FeedbackReporter receives user ratings of agent answers
type FeedbackReporter interface {
	ReportFeedback(ctx context.Context, report *model.FeedbackReport) error
}

var (
	ErrUnexpectedStatus  = goerr.New("unexpected status code from agent service")
	ErrReportUnsupported = goerr.New("report generation is not supported by this agent")
)

// maxErrorBody limits how much of a failed response body is kept in an error
const maxErrorBody = 512

// AgentClient talks to the agent service over HTTP
type AgentClient struct {
	baseURL string
	client  *http.Client
}

type AgentOption func(*AgentClient)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(client *http.Client) AgentOption {
	return func(a *AgentClient) {
		a.client = client
	}
}

// WithTimeout sets the timeout of each exchange. Zero disables it.
func WithTimeout(timeout time.Duration) AgentOption {
	return func(a *AgentClient) {
		a.client.Timeout = timeout
	}
}

// NewAgent creates a client of the agent service at baseURL
func NewAgent(baseURL string, opts ...AgentOption) *AgentClient {
	a := &AgentClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *AgentClient) Query(ctx context.Context, req *model.AgentRequest) (*model.AgentResponse, error) {
	body, err := a.post(ctx, "/chat", req)
	if err != nil {
		return nil, err
	}

	var raw model.RawAgentResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, goerr.Wrap(err, "failed to decode agent response", goerr.V("thread_id", req.ThreadID))
	}
	return raw.Normalize(), nil
}

func (a *AgentClient) ReportFeedback(ctx context.Context, report *model.FeedbackReport) error {
	if _, err := a.post(ctx, "/feedback", report); err != nil {
		return goerr.Wrap(err, "failed to report feedback", goerr.V("feedback", report.Feedback))
	}
	return nil
}

func (a *AgentClient) GenerateReport(ctx context.Context, req *model.ReportRequest) ([]byte, error) {
	body, err := a.post(ctx, "/generate_report", req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate report")
	}
	return body, nil
}

func (a *AgentClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal request", goerr.V("path", path))
	}

	url := a.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request", goerr.V("url", url))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send request", goerr.V("url", url))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read response", goerr.V("url", url))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt := string(body)
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return nil, goerr.Wrap(ErrUnexpectedStatus, "agent service returned an error",
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", excerpt))
	}

	return body, nil
}
