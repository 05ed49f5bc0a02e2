package adapter

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/intellica/pkg/model"
	"google.golang.org/genai"
)

type Gemini interface {
	GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiClient struct {
	client          *genai.Client
	generativeModel string
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.generativeModel = model
	}
}

func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiClient{
		client:          client,
		generativeModel: "gemini-2.5-flash",
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *GeminiClient) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content")
	}
	return resp, nil
}

const (
	researcherPrompt = "You are Intellica, an advanced AI Researcher.\n"

	speedModePrompt = `MODE: SPEED & ACCURACY
Answer directly and concisely. Do not waffle.
`

	criticalModePrompt = `MODE: CRITICAL THINKING
Critique the premise. Provide counter-arguments and risks.
`

	formatPrompt = `AFTER your answer, on a new line, output strictly this format:
Suggestions: [Related Topic 1, Related Topic 2, Related Topic 3]
Finally, end with a polite feedback question (MAX 15 WORDS).
`

	suggestionsPrefix = "suggestions:"
)

// GeminiAgent answers queries in-process with Gemini instead of a remote agent service
type GeminiAgent struct {
	gemini Gemini
}

// NewGeminiAgent creates an Agent backed by gemini
func NewGeminiAgent(gemini Gemini) *GeminiAgent {
	return &GeminiAgent{gemini: gemini}
}

func (a *GeminiAgent) Query(ctx context.Context, req *model.AgentRequest) (*model.AgentResponse, error) {
	contents := make([]*genai.Content, 0, len(req.ChatHistory)+1)
	for _, h := range req.ChatHistory {
		role := genai.Role(genai.RoleUser)
		if h.Role == model.RoleAgent {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(h.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Query, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt(req.CriticalMode), ""),
	}

	resp, err := a.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query gemini", goerr.V("thread_id", req.ThreadID))
	}

	answer, suggestions := SplitSuggestions(resp.Text())
	raw := model.RawAgentResponse{
		Answer:      answer,
		Suggestions: suggestions,
	}
	return raw.Normalize(), nil
}

func (a *GeminiAgent) GenerateReport(ctx context.Context, req *model.ReportRequest) ([]byte, error) {
	return nil, ErrReportUnsupported
}

func systemPrompt(critical bool) string {
	mode := speedModePrompt
	if critical {
		mode = criticalModePrompt
	}
	return researcherPrompt + mode + formatPrompt
}

// SplitSuggestions removes the last "Suggestions: [A, B]" line from text and returns
// the remaining answer and the listed topics
func SplitSuggestions(text string) (string, []string) {
	lines := strings.Split(text, "\n")

	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(strings.ToLower(line), suggestionsPrefix) {
			continue
		}

		list := strings.TrimSpace(line[len(suggestionsPrefix):])
		list = strings.TrimPrefix(list, "[")
		list = strings.TrimSuffix(list, "]")

		var topics []string
		for _, item := range strings.Split(list, ",") {
			item = strings.Trim(strings.TrimSpace(item), `"'`)
			if item != "" {
				topics = append(topics, item)
			}
		}

		rest := append(lines[:i:i], lines[i+1:]...)
		return strings.TrimSpace(strings.Join(rest, "\n")), topics
	}

	return strings.TrimSpace(text), nil
}
