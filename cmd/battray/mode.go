package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/charlie0129/battray/pkg/client"
	"github.com/charlie0129/battray/pkg/display"
	"github.com/charlie0129/battray/pkg/types"
)

func NewModeCommand() *cobra.Command {
	names := make([]string, 0, len(display.Modes()))
	for _, m := range display.Modes() {
		names = append(names, m.String())
	}

	return &cobra.Command{
		Use:     "mode [next|prev|" + strings.Join(names, "|") + "]",
		Short:   "Get or change the tray view",
		GroupID: gBasic,
		Long: `Get or change what the tray shows.

Without an argument the current view is printed. "next" and "prev" cycle
through the views; a view name selects it directly. The choice is saved to
the config file.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: append([]string{"next", "prev"}, names...),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.NewClient(unixSocketPath)

			var (
				dm  *types.DrawMode
				err error
			)
			if len(args) == 0 {
				dm, err = c.GetDrawMode()
			} else {
				dm, err = c.SetDrawMode(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to change view: %w", err)
			}

			for _, m := range dm.Modes {
				if m == dm.Mode {
					cmd.Println(bold("* %s", m))
					continue
				}
				cmd.Println("  " + m)
			}
			return nil
		},
	}
}
