package main

import (
	"github.com/brettbedarf/treenav/internal/tui"
	"github.com/brettbedarf/treenav/internal/util"
	"github.com/brettbedarf/treenav/navigator"
	"github.com/brettbedarf/treenav/watch"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func (a *app) newBrowseCmd() *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "browse [ROOT]",
		Short: "Step through ranked files interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(args, func(s *navigator.Session) error {
				logger := util.GetLogger("browse")

				var changes <-chan watch.Change
				if !noWatch {
					w, err := watch.New(s.Root())
					if err != nil {
						return err
					}
					defer w.Close()
					if err := w.Start(); err != nil {
						return err
					}
					changes = w.Changes()
				}

				p := tea.NewProgram(tui.New(s, changes),
					tea.WithInput(cmd.InOrStdin()),
					tea.WithOutput(cmd.OutOrStdout()),
				)
				if _, err := p.Run(); err != nil {
					logger.Error().Err(err).Msg("Browser exited with error")
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not refresh when the tree changes")
	return cmd
}
