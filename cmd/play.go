package main

import (
	"context"
	"fmt"

	"github.com/castctl/castctl/internal/models"
	"github.com/castctl/castctl/internal/player"
	"github.com/castctl/castctl/internal/player/streamengine"
	"github.com/castctl/castctl/internal/shared"
	"github.com/castctl/castctl/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
)

// Play launches the interactive episode player.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/castctl-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	engine := streamengine.New(streamengine.Opts{
		Tokens: r.session,
		Logger: fileLogger,
	})

	snapshots := make(chan player.Session, 16)
	controller, err := player.NewController(player.Opts{
		Engine: engine,
		Resolver: func(ep models.Episode) string {
			return r.catalog.StreamURL(ep.ID)
		},
		Logger: fileLogger,
		OnChange: func(s player.Session) {
			// Drop snapshots the TUI has not consumed yet; a newer one
			// always follows.
			select {
			case snapshots <- s:
			default:
			}
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		controller.Close()
		close(snapshots)
	}()

	model := ui.NewModel(ctx, r.catalog, r.cache, controller, snapshots)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
