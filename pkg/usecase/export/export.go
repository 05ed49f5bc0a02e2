package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/intellica/pkg/adapter"
	"github.com/m-mizutani/intellica/pkg/model"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidFormat      = goerr.New("invalid export format")
	ErrInvalidDestination = goerr.New("invalid export destination")
	ErrNoStorage          = goerr.New("no storage bucket is configured")
	ErrNothingToExport    = goerr.New("nothing to export")
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Validate checks if the format is supported
func (f Format) Validate() error {
	switch f {
	case FormatJSON, FormatYAML:
		return nil
	default:
		return goerr.Wrap(ErrInvalidFormat, "format must be json or yaml", goerr.V("format", f))
	}
}

type Destination string

const (
	DestinationFile      Destination = "file"
	DestinationClipboard Destination = "clipboard"
	DestinationStorage   Destination = "storage"
)

const (
	ChatFileName    = "intellica-chat.txt"
	HistoryFileName = "intellica-history"
	ReportFileName  = "Intellica_Report.pdf"
)

// UseCase delivers exported documents to a file, the clipboard or a storage bucket
type UseCase struct {
	dir       string
	storage   adapter.Storage
	clipboard adapter.Clipboard
	now       func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithDir sets the directory exported files are written to
func WithDir(dir string) Option {
	return func(u *UseCase) {
		u.dir = dir
	}
}

// WithStorage enables the storage destination
func WithStorage(s adapter.Storage) Option {
	return func(u *UseCase) {
		u.storage = s
	}
}

// WithClipboard replaces the system clipboard
func WithClipboard(c adapter.Clipboard) Option {
	return func(u *UseCase) {
		u.clipboard = c
	}
}

func New(opts ...Option) *UseCase {
	u := &UseCase{
		dir:       ".",
		clipboard: adapter.NewClipboard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Transcript renders a conversation as "<role>: <content>" lines. Sources of an agent
// message are listed as an indented block beneath it.
func Transcript(messages []*model.Message) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		if m.Role == model.RoleAgent && len(m.Sources) > 0 {
			b.WriteString("    Sources:\n")
			for _, src := range m.Sources {
				fmt.Fprintf(&b, "    - %s: %s\n", src.Origin, src.Content)
			}
		}
	}
	return b.String()
}

// Encode serializes archived sessions in the given format
func Encode(sessions []*model.ArchivedSession, format Format) ([]byte, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []*model.ArchivedSession{}
	}

	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(sessions)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to encode history as yaml")
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(sessions, "", "  ")
		if err != nil {
			return nil, goerr.Wrap(err, "failed to encode history as json")
		}
		return data, nil
	}
}

// Chat exports the active conversation and returns where it was delivered
func (u *UseCase) Chat(ctx context.Context, messages []*model.Message, dest Destination) (string, error) {
	if len(messages) == 0 {
		return "", ErrNothingToExport
	}

	text := Transcript(messages)
	if dest == DestinationClipboard {
		if err := u.clipboard.Write(text); err != nil {
			return "", goerr.Wrap(err, "failed to copy chat to clipboard")
		}
		return "clipboard", nil
	}
	return u.deliver(ctx, ChatFileName, "text/plain; charset=utf-8", []byte(text), dest)
}

// History exports the whole archive and returns where it was delivered
func (u *UseCase) History(ctx context.Context, sessions []*model.ArchivedSession, format Format, dest Destination) (string, error) {
	data, err := Encode(sessions, format)
	if err != nil {
		return "", err
	}

	contentType := "application/json"
	if format == FormatYAML {
		contentType = "application/yaml"
	}
	return u.deliver(ctx, HistoryFileName+"."+string(format), contentType, data, dest)
}

// Report saves a generated PDF report
func (u *UseCase) Report(ctx context.Context, pdf []byte, dest Destination) (string, error) {
	return u.deliver(ctx, ReportFileName, "application/pdf", pdf, dest)
}

func (u *UseCase) deliver(ctx context.Context, name, contentType string, data []byte, dest Destination) (string, error) {
	switch dest {
	case DestinationFile, "":
		path := filepath.Join(u.dir, name)
		if err := os.WriteFile(path, data, 0600); err != nil {
			return "", goerr.Wrap(err, "failed to write export file", goerr.V("path", path))
		}
		return path, nil

	case DestinationStorage:
		if u.storage == nil {
			return "", ErrNoStorage
		}
		key := "exports/" + u.now().UTC().Format("20060102-150405") + "-" + name
		url, err := u.storage.Upload(ctx, key, contentType, data)
		if err != nil {
			return "", goerr.Wrap(err, "failed to upload export", goerr.V("key", key))
		}
		return url, nil

	default:
		return "", goerr.Wrap(ErrInvalidDestination, "unsupported destination",
			goerr.V("destination", dest),
			goerr.V("name", name))
	}
}
