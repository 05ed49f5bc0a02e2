package export_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/intellica/pkg/model"
	"github.com/m-mizutani/intellica/pkg/usecase/export"
	"github.com/m-mizutani/intellica/pkg/usecase/history"
	"gopkg.in/yaml.v3"
)

// Mock Storage
type mockStorage struct {
	objects      map[string][]byte
	contentTypes map[string]string
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

func (m *mockStorage) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	m.objects[key] = data
	m.contentTypes[key] = contentType
	return "gs://bucket/" + key, nil
}

// Mock Clipboard
type mockClipboard struct {
	text string
	err  error
}

func (m *mockClipboard) Write(text string) error {
	if m.err != nil {
		return m.err
	}
	m.text = text
	return nil
}

func sampleConversation() []*model.Message {
	agent := model.NewAgentMessage(&model.AgentResponse{
		Answer: "Hi there",
		Sources: []model.Source{
			{Content: "Solid-state cells", Origin: "battery.txt"},
		},
		Suggestions: []string{"Topic A"},
	})
	return []*model.Message{
		model.NewUserMessage("Hello"),
		agent,
		model.NewUserMessage("Thanks"),
	}
}

func TestTranscript(t *testing.T) {
	text := export.Transcript(sampleConversation())
	expected := strings.Join([]string{
		"user: Hello",
		"",
		"agent: Hi there",
		"    Sources:",
		"    - battery.txt: Solid-state cells",
		"",
		"user: Thanks",
		"",
	}, "\n")
	gt.Equal(t, text, expected)
}

func TestTranscriptWithoutSources(t *testing.T) {
	text := export.Transcript([]*model.Message{
		model.NewUserMessage("q"),
		model.NewAgentMessage(&model.AgentResponse{Answer: "a"}),
	})
	gt.Equal(t, text, "user: q\n\nagent: a\n")
	gt.S(t, text).NotContains("Sources")
}

func TestEncodeJSON(t *testing.T) {
	archive := history.New()
	archive.Archive(history.Snapshot{ThreadID: "t-1", Messages: sampleConversation()}, "")

	data, err := export.Encode(archive.List(), export.FormatJSON)
	gt.NoError(t, err)

	var decoded []*model.ArchivedSession
	gt.NoError(t, json.Unmarshal(data, &decoded))
	gt.A(t, decoded).Length(1)
	gt.Equal(t, decoded[0].ThreadID, model.ThreadID("t-1"))
	gt.Equal(t, decoded[0].Title, "Hello")
	gt.A(t, decoded[0].Messages).Length(3)
	gt.Equal(t, decoded[0].Messages[1].Sources[0].Origin, "battery.txt")
}

func TestEncodeYAML(t *testing.T) {
	archive := history.New()
	archive.Archive(history.Snapshot{ThreadID: "t-1", Messages: sampleConversation()}, "")

	data, err := export.Encode(archive.List(), export.FormatYAML)
	gt.NoError(t, err)
	gt.S(t, string(data)).Contains("thread_id: t-1")

	var decoded []map[string]any
	gt.NoError(t, yaml.Unmarshal(data, &decoded))
	gt.A(t, decoded).Length(1)
	gt.V(t, decoded[0]["title"]).Equal("Hello")
}

func TestEncodeEmptyAndInvalid(t *testing.T) {
	data, err := export.Encode(nil, export.FormatJSON)
	gt.NoError(t, err)
	gt.Equal(t, string(data), "[]")

	_, err = export.Encode(nil, export.Format("xml"))
	gt.True(t, errors.Is(err, export.ErrInvalidFormat))
}

func TestChatToFile(t *testing.T) {
	dir := t.TempDir()
	uc := export.New(export.WithDir(dir))

	path, err := uc.Chat(context.Background(), sampleConversation(), export.DestinationFile)
	gt.NoError(t, err)
	gt.Equal(t, path, filepath.Join(dir, export.ChatFileName))

	data, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.S(t, string(data)).Contains("agent: Hi there")
}

func TestChatToClipboard(t *testing.T) {
	cb := &mockClipboard{}
	uc := export.New(export.WithClipboard(cb))

	where, err := uc.Chat(context.Background(), sampleConversation(), export.DestinationClipboard)
	gt.NoError(t, err)
	gt.Equal(t, where, "clipboard")
	gt.S(t, cb.text).Contains("user: Hello")

	cb.err = goerr.New("no clipboard")
	_, err = uc.Chat(context.Background(), sampleConversation(), export.DestinationClipboard)
	gt.Error(t, err)
}

func TestChatEmpty(t *testing.T) {
	_, err := export.New().Chat(context.Background(), nil, export.DestinationFile)
	gt.True(t, errors.Is(err, export.ErrNothingToExport))
}

func TestHistoryToStorage(t *testing.T) {
	storage := newMockStorage()
	uc := export.New(export.WithStorage(storage))

	archive := history.New()
	archive.Archive(history.Snapshot{Messages: sampleConversation()}, "")

	url, err := uc.History(context.Background(), archive.List(), export.FormatYAML, export.DestinationStorage)
	gt.NoError(t, err)
	gt.S(t, url).Contains("gs://bucket/exports/")
	gt.S(t, url).Contains("intellica-history.yaml")

	gt.Equal(t, len(storage.objects), 1)
	for key, ct := range storage.contentTypes {
		gt.True(t, strings.HasSuffix(key, "intellica-history.yaml"))
		gt.Equal(t, ct, "application/yaml")
	}
}

func TestHistoryToStorageWithoutBucket(t *testing.T) {
	_, err := export.New().History(context.Background(), nil, export.FormatJSON, export.DestinationStorage)
	gt.True(t, errors.Is(err, export.ErrNoStorage))
}

func TestReportToFile(t *testing.T) {
	dir := t.TempDir()
	uc := export.New(export.WithDir(dir))

	path, err := uc.Report(context.Background(), []byte("%PDF-1.4"), export.DestinationFile)
	gt.NoError(t, err)
	gt.Equal(t, filepath.Base(path), export.ReportFileName)
}

func TestInvalidDestination(t *testing.T) {
	_, err := export.New().Report(context.Background(), []byte("x"), export.Destination("printer"))
	gt.True(t, errors.Is(err, export.ErrInvalidDestination))
}
