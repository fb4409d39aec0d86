package main

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/voog-pager/internal/tui"
	"github.com/Sternrassler/voog-pager/pkg/location"
	"github.com/Sternrassler/voog-pager/pkg/logging"
	"github.com/Sternrassler/voog-pager/pkg/options"
	"github.com/Sternrassler/voog-pager/pkg/pagination"
	"github.com/Sternrassler/voog-pager/pkg/render"
)

func newBrowseCommand(cfg *appConfig) *cobra.Command {
	var noAltScreen bool

	cmd := &cobra.Command{
		Use:   "browse [page-url]",
		Short: "Browse a listing page by page in the terminal",
		Long: `Browse a listing interactively. The page URL works like the browser
address bar: it selects the starting page and is updated as you navigate,
with back/forward history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageURL := "/"
			if len(args) == 1 {
				pageURL = args[0]
			}

			// The program owns the terminal
			logging.Setup(logging.Config{Level: logging.LevelDisabled, Output: io.Discard})

			opts, err := cfg.resolveOptions(options.Layer{"renderItemsOnFirstFetch": true})
			if err != nil {
				return err
			}

			store, closeStore, err := cfg.newStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			voog, err := cfg.newClient(store)
			if err != nil {
				return fmt.Errorf("failed to create Voog client: %w", err)
			}

			view := render.NewBuffer()
			loc := location.NewMemory(pageURL)
			pager, err := pagination.New(view, loc, voog, opts, tui.Strategies(opts.ItemType))
			if err != nil {
				return err
			}

			programOpts := []tea.ProgramOption{}
			if !noAltScreen {
				programOpts = append(programOpts, tea.WithAltScreen())
			}
			program := tea.NewProgram(
				tui.New(cmd.Context(), tui.Config{
					Pager:    pager,
					View:     view,
					Location: loc,
					Title:    fmt.Sprintf("voogpager · %ss", opts.ItemType),
				}),
				programOpts...,
			)

			if _, err := program.Run(); err != nil {
				return fmt.Errorf("program error: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")

	return cmd
}
