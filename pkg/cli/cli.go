package cli

import (
	"context"

	"github.com/m-mizutani/intellica/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "intellica",
		Usage: "Terminal client of the Intellica research agent",
		Commands: []*cli.Command{
			chatCommand(),
			askCommand(),
			mindmapCommand(),
			feedbackCommand(),
		},
	}
}

func Run(ctx context.Context, argv []string) *Error {
	if err := newApp().Run(ctx, argv); err != nil {
		logging.From(ctx).Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

// withLogger attaches the configured logger to ctx and makes it the default
func (cfg *config) withLogger(ctx context.Context) (context.Context, error) {
	logger, err := cfg.newLogger()
	if err != nil {
		return ctx, err
	}
	logging.SetDefault(logger)
	return logging.With(ctx, logger), nil
}
