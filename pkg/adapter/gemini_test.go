package adapter_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/intellica/pkg/adapter"
	"github.com/m-mizutani/intellica/pkg/model"
	"google.golang.org/genai"
)

type mockGemini struct {
	text     string
	err      error
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.contents = contents
	m.config = config
	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(m.text, genai.RoleModel)},
		},
	}, nil
}

func TestSplitSuggestions(t *testing.T) {
	answer, topics := adapter.SplitSuggestions("Batteries are improving.\nSuggestions: [Solid-State, Lithium Metal, \"Sodium-Ion\"]\nWas this helpful?")
	gt.Equal(t, answer, "Batteries are improving.\nWas this helpful?")
	gt.Equal(t, topics, []string{"Solid-State", "Lithium Metal", "Sodium-Ion"})
}

func TestSplitSuggestionsMissing(t *testing.T) {
	answer, topics := adapter.SplitSuggestions("  Just an answer.\n")
	gt.Equal(t, answer, "Just an answer.")
	gt.A(t, topics).Length(0)
}

func TestGeminiAgentQuery(t *testing.T) {
	gemini := &mockGemini{text: "Hi there\nSuggestions: [Topic A, Topic B]"}
	agent := adapter.NewGeminiAgent(gemini)

	resp, err := agent.Query(context.Background(), &model.AgentRequest{
		Query:        "Hello again",
		ThreadID:     "thread-1",
		CriticalMode: true,
		ChatHistory: []model.HistoryEntry{
			{Role: model.RoleUser, Content: "Hello"},
			{Role: model.RoleAgent, Content: "Hi"},
		},
	})
	gt.NoError(t, err)
	gt.Equal(t, resp.Answer, "Hi there")
	gt.Equal(t, resp.Suggestions, []string{"Topic A", "Topic B"})
	gt.NotNil(t, resp.Sources)

	gt.A(t, gemini.contents).Length(3)
	gt.Equal(t, gemini.contents[1].Role, string(genai.RoleModel))
	gt.Equal(t, gemini.contents[2].Parts[0].Text, "Hello again")
	gt.S(t, gemini.config.SystemInstruction.Parts[0].Text).Contains("CRITICAL THINKING")
}

func TestGeminiAgentSpeedMode(t *testing.T) {
	gemini := &mockGemini{text: "ok"}
	agent := adapter.NewGeminiAgent(gemini)

	_, err := agent.Query(context.Background(), &model.AgentRequest{Query: "q"})
	gt.NoError(t, err)
	gt.S(t, gemini.config.SystemInstruction.Parts[0].Text).Contains("SPEED & ACCURACY")
}

func TestGeminiAgentError(t *testing.T) {
	agent := adapter.NewGeminiAgent(&mockGemini{err: errors.New("quota exceeded")})
	_, err := agent.Query(context.Background(), &model.AgentRequest{Query: "q"})
	gt.Error(t, err)
}

func TestGeminiAgentReportUnsupported(t *testing.T) {
	agent := adapter.NewGeminiAgent(&mockGemini{})
	_, err := agent.GenerateReport(context.Background(), &model.ReportRequest{})
	gt.True(t, errors.Is(err, adapter.ErrReportUnsupported))
}

func TestGenerateContent(t *testing.T) {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, projectID, "us-central1")
	gt.NoError(t, err)

	resp, err := adapter.NewGeminiAgent(client).Query(ctx, &model.AgentRequest{
		Query:    "What is the capital of France?",
		ThreadID: model.NewThreadID(),
	})
	gt.NoError(t, err)
	gt.S(t, resp.Answer).Contains("Paris")
	t.Log("suggestions:", resp.Suggestions)
}
