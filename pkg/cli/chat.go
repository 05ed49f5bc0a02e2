package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/intellica/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const prompt = "> "

func chatCommand() *cli.Command {
	var cfg config

	var flags []cli.Flag
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, agentFlags(&cfg)...)
	flags = append(flags, sessionFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive research chat with the agent",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.withLogger(ctx)
			if err != nil {
				return err
			}

			// Initialize dependencies
			session, err := cfg.newSession(ctx)
			if err != nil {
				return err
			}
			defer session.Wait()

			exporter, err := cfg.newExporter(ctx)
			if err != nil {
				return err
			}

			markdown, err := cfg.newMarkdown()
			if err != nil {
				return err
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          prompt,
				InterruptPrompt: "^C",
				EOFPrompt:       "/exit",
			})
			if err != nil {
				return goerr.Wrap(err, "failed to initialize prompt")
			}
			defer rl.Close()

			r := newREPL(replInput{
				Session:  session,
				Exporter: exporter,
				Markdown: markdown,
				Out:      rl.Stdout(),
				Confirm:  confirmWith(rl),
			})

			logging.From(ctx).Debug("chat session started", "thread_id", session.ThreadID())
			r.greet()

			for {
				line, err := rl.ReadlineWithDefault(session.Pending())
				if errors.Is(err, readline.ErrInterrupt) {
					// An interrupted line is kept as the pending query. Interrupting an
					// empty or unchanged line quits.
					if line == "" || line == session.Pending() {
						break
					}
					session.SetPending(line)
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				session.SetPending("")
				if r.handle(ctx, line) {
					break
				}
			}

			r.printf("Bye.\n")
			return nil
		},
	}
}

func confirmWith(rl *readline.Instance) func(string) bool {
	return func(question string) bool {
		rl.SetPrompt(question + " [y/N] ")
		defer rl.SetPrompt(prompt)

		answer, err := rl.Readline()
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}
