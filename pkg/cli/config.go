package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/intellica/pkg/adapter"
	"github.com/m-mizutani/intellica/pkg/usecase/chat"
	"github.com/m-mizutani/intellica/pkg/usecase/export"
	"github.com/m-mizutani/intellica/pkg/usecase/history"
	"github.com/m-mizutani/intellica/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	backendHTTP   = "http"
	backendGemini = "gemini"

	feedbackAgent     = "agent"
	feedbackFirestore = "firestore"
	feedbackNone      = "none"
)

// config holds configuration values
type config struct {
	// Logging
	logLevel  string
	logFormat string

	// Agent
	backend        string
	agentURL       string
	agentTimeout   time.Duration
	geminiProject  string
	geminiLocation string
	geminiModel    string

	// Feedback
	feedbackSink      string
	firestoreProject  string
	firestoreDatabase string

	// Export
	exportDir string
	bucket    string

	// Session
	maxSessions  int64
	criticalMode bool
	lightMode    bool
	width        int64
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "warn",
			Sources:     cli.EnvVars("INTELLICA_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       string(logging.FormatConsole),
			Sources:     cli.EnvVars("INTELLICA_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
	}
}

// agentFlags returns flags for the agent backend with destination config
func agentFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backend",
			Aliases:     []string{"b"},
			Usage:       "Agent backend (http, gemini)",
			Value:       backendHTTP,
			Sources:     cli.EnvVars("INTELLICA_BACKEND"),
			Destination: &cfg.backend,
		},
		&cli.StringFlag{
			Name:        "agent-url",
			Aliases:     []string{"u"},
			Usage:       "Base URL of the agent service",
			Value:       "http://127.0.0.1:8000",
			Sources:     cli.EnvVars("INTELLICA_AGENT_URL"),
			Destination: &cfg.agentURL,
		},
		&cli.DurationFlag{
			Name:        "agent-timeout",
			Usage:       "Timeout of one agent exchange (0 waits forever)",
			Value:       120 * time.Second,
			Sources:     cli.EnvVars("INTELLICA_AGENT_TIMEOUT"),
			Destination: &cfg.agentTimeout,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model used by the gemini backend",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.BoolFlag{
			Name:        "critical",
			Usage:       "Start with critical mode enabled",
			Sources:     cli.EnvVars("INTELLICA_CRITICAL_MODE"),
			Destination: &cfg.criticalMode,
		},
	}
}

// sessionFlags returns flags for feedback, export and display with destination config
func sessionFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "feedback",
			Usage:       "Where ratings are reported (agent, firestore, none)",
			Value:       feedbackAgent,
			Sources:     cli.EnvVars("INTELLICA_FEEDBACK"),
			Destination: &cfg.feedbackSink,
		},
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "Google Cloud project ID of the feedback Firestore",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.firestoreProject,
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.firestoreDatabase,
		},
		&cli.StringFlag{
			Name:        "export-dir",
			Usage:       "Directory for exported files",
			Value:       ".",
			Sources:     cli.EnvVars("INTELLICA_EXPORT_DIR"),
			Destination: &cfg.exportDir,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for exports",
			Sources:     cli.EnvVars("INTELLICA_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.IntFlag{
			Name:        "max-sessions",
			Usage:       "Maximum number of archived sessions (0 is unlimited)",
			Value:       0,
			Sources:     cli.EnvVars("INTELLICA_MAX_SESSIONS"),
			Destination: &cfg.maxSessions,
		},
		&cli.BoolFlag{
			Name:        "light",
			Usage:       "Start in light mode",
			Sources:     cli.EnvVars("INTELLICA_LIGHT_MODE"),
			Destination: &cfg.lightMode,
		},
		&cli.IntFlag{
			Name:        "width",
			Usage:       "Word wrap width of rendered answers",
			Value:       100,
			Sources:     cli.EnvVars("INTELLICA_WIDTH"),
			Destination: &cfg.width,
		},
	}
}

// newLogger creates the logger configured by flags
func (cfg *config) newLogger() (*slog.Logger, error) {
	logger, err := logging.NewWithFormat(cfg.logLevel, logging.Format(cfg.logFormat), os.Stderr)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create logger")
	}
	return logger, nil
}

// newAgent creates the agent of the selected backend
func (cfg *config) newAgent(ctx context.Context) (adapter.Agent, error) {
	switch cfg.backend {
	case backendHTTP:
		if cfg.agentURL == "" {
			return nil, goerr.New("agent-url is required")
		}
		return adapter.NewAgent(cfg.agentURL, adapter.WithTimeout(cfg.agentTimeout)), nil

	case backendGemini:
		if cfg.geminiProject == "" {
			return nil, goerr.New("gemini-project is required")
		}
		if cfg.geminiLocation == "" {
			return nil, goerr.New("gemini-location is required")
		}
		gemini, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation,
			adapter.WithGenerativeModel(cfg.geminiModel))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create gemini client")
		}
		return adapter.NewGeminiAgent(gemini), nil

	default:
		return nil, goerr.New("unknown backend", goerr.V("backend", cfg.backend))
	}
}

// newFeedback returns where ratings are reported. It returns nil when feedback stays local.
func (cfg *config) newFeedback(ctx context.Context, agent adapter.Agent) (adapter.FeedbackReporter, error) {
	switch cfg.feedbackSink {
	case feedbackAgent:
		reporter, ok := agent.(adapter.FeedbackReporter)
		if !ok {
			logging.From(ctx).Info("agent backend does not accept feedback, ratings stay local", "backend", cfg.backend)
			return nil, nil
		}
		return reporter, nil

	case feedbackFirestore:
		if cfg.firestoreProject == "" {
			return nil, goerr.New("firestore-project is required")
		}
		if cfg.firestoreDatabase == "" {
			return nil, goerr.New("firestore-database is required")
		}
		store, err := adapter.NewFeedbackStore(ctx, cfg.firestoreProject, cfg.firestoreDatabase)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create feedback store")
		}
		return store, nil

	case feedbackNone:
		return nil, nil

	default:
		return nil, goerr.New("unknown feedback sink", goerr.V("feedback", cfg.feedbackSink))
	}
}

// newExporter creates the export usecase. The storage destination is enabled when a bucket is set.
func (cfg *config) newExporter(ctx context.Context) (*export.UseCase, error) {
	opts := []export.Option{export.WithDir(cfg.exportDir)}
	if cfg.bucket != "" {
		storage, err := adapter.NewStorage(ctx, cfg.bucket)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create storage")
		}
		opts = append(opts, export.WithStorage(storage))
	}
	return export.New(opts...), nil
}

// newSession wires the agent, the feedback sink and the archive into a chat session
func (cfg *config) newSession(ctx context.Context) (*chat.Session, error) {
	agent, err := cfg.newAgent(ctx)
	if err != nil {
		return nil, err
	}

	feedback, err := cfg.newFeedback(ctx, agent)
	if err != nil {
		return nil, err
	}

	if cfg.maxSessions < 0 {
		return nil, goerr.New("max-sessions must not be negative", goerr.V("max_sessions", cfg.maxSessions))
	}

	return chat.New(chat.NewInput{
		Agent:    agent,
		Feedback: feedback,
		Archive:  history.New(history.WithMaxSessions(int(cfg.maxSessions))),
		Settings: chat.NewSettings(
			chat.WithDarkMode(!cfg.lightMode),
			chat.WithCriticalMode(cfg.criticalMode),
		),
	}), nil
}

// newMarkdown creates the answer renderer
func (cfg *config) newMarkdown() (*adapter.Markdown, error) {
	if cfg.width <= 0 {
		return nil, goerr.New("width must be positive", goerr.V("width", cfg.width))
	}
	return adapter.NewMarkdown(int(cfg.width))
}
