package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/intellica/pkg/adapter"
	"github.com/urfave/cli/v3"
)

func feedbackCommand() *cli.Command {
	var (
		cfg   config
		limit int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Number of ratings to show",
			Value:       20,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, sessionFlags(&cfg)...)

	return &cli.Command{
		Name:  "feedback",
		Usage: "Show recent ratings recorded in Firestore",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.withLogger(ctx)
			if err != nil {
				return err
			}
			if limit <= 0 {
				return goerr.New("limit must be positive", goerr.V("limit", limit))
			}
			if cfg.firestoreProject == "" {
				return goerr.New("firestore-project is required")
			}

			store, err := adapter.NewFeedbackStore(ctx, cfg.firestoreProject, cfg.firestoreDatabase)
			if err != nil {
				return err
			}
			defer store.Close()

			reports, err := store.List(ctx, int(limit))
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if len(reports) == 0 {
				fmt.Fprintln(w, "No ratings recorded.")
				return nil
			}
			for _, r := range reports {
				fmt.Fprintf(w, "[%s] %s\n    %s\n", r.Feedback, r.Query, truncate(r.Response, 80))
			}
			return nil
		},
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
