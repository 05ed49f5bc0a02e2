package cli

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/intellica/pkg/mindmap"
	"github.com/urfave/cli/v3"
)

func mindmapCommand() *cli.Command {
	var center string

	return &cli.Command{
		Name:      "mindmap",
		Usage:     "Lay out topics around a center concept",
		ArgsUsage: "<topic> [topic...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "center",
				Aliases:     []string{"c"},
				Usage:       "Label of the center node",
				Value:       mindmap.CenterLabel,
				Destination: &center,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var topics []string
			for _, arg := range c.Args().Slice() {
				if t := strings.TrimSpace(arg); t != "" {
					topics = append(topics, t)
				}
			}

			m, err := mindmap.Layout(center, topics)
			if err != nil {
				return goerr.Wrap(err, "failed to lay out mind map", goerr.V("center", center))
			}
			return m.Render(c.Root().Writer)
		},
	}
}
