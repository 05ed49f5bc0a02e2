package cli

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/intellica/pkg/mindmap"
	"github.com/urfave/cli/v3"
)

func askCommand() *cli.Command {
	var (
		cfg         config
		showMindMap bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "mindmap",
			Aliases:     []string{"m"},
			Usage:       "Also print the mind map of the answer",
			Destination: &showMindMap,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, agentFlags(&cfg)...)
	flags = append(flags, sessionFlags(&cfg)...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Send one query to the agent and print the answer",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			query := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(query) == "" {
				return goerr.New("query is required")
			}

			ctx, err := cfg.withLogger(ctx)
			if err != nil {
				return err
			}

			session, err := cfg.newSession(ctx)
			if err != nil {
				return err
			}
			defer session.Wait()

			markdown, err := cfg.newMarkdown()
			if err != nil {
				return err
			}

			r := newREPL(replInput{
				Session:  session,
				Markdown: markdown,
				Out:      c.Root().Writer,
			})

			reply, err := session.Submit(ctx, query)
			if err != nil {
				return goerr.Wrap(err, "failed to submit query")
			}
			r.printAgent(ctx, reply)

			if reply.Errored {
				return goerr.New("agent exchange failed", goerr.V("thread_id", session.ThreadID()))
			}

			if showMindMap {
				r.printf("\n")
				if err := mindmap.ForMessage(reply).Render(c.Root().Writer); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
