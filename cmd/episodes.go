package main

import (
	"context"
	"fmt"

	"github.com/castctl/castctl/internal/models"
	"github.com/castctl/castctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// EpisodesList prints the episodes of an album, from the backend or the
// local cache.
func (r *Runner) EpisodesList(ctx context.Context, cmd *cli.Command) error {
	albumID := cmd.IntArg("album-id")

	var episodes []models.Episode

	if cmd.Bool("cached") {
		if r.cache == nil {
			return fmt.Errorf("%w: local database not initialized, run 'castctl setup database'", shared.ErrServiceUnavailable)
		}
		cached, err := r.cache.ListByAlbum(albumID)
		if err != nil {
			return err
		}
		episodes = cached
	} else {
		if err := r.requireAuth(); err != nil {
			return err
		}
		page, err := r.catalog.ListEpisodes(ctx, albumID)
		if err != nil {
			return err
		}
		episodes = page.Items

		if r.cache != nil {
			if err := r.cache.ReplaceAlbum(albumID, episodes); err != nil {
				r.logger.Warn("failed to refresh episode cache", "error", err)
			}
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(episodes, true)
	}

	t := r.newTable("ID", "Title", "Duration", "Sort")
	for _, ep := range episodes {
		t.AppendRow([]any{ep.ID, ep.Title, shared.FormatDuration(ep.Duration), ep.SortOrder})
	}
	t.Render()
	return r.writePlain("%d episodes\n", len(episodes))
}

// EpisodesGet prints a single episode.
func (r *Runner) EpisodesGet(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	episode, err := r.catalog.GetEpisode(ctx, cmd.IntArg("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(episode, true)
	}

	r.writePlain("Episode #%d: %s\n", episode.ID, episode.Title)
	r.writePlain("Album: #%d\n", episode.AlbumID)
	r.writePlain("Duration: %s\n", shared.FormatDuration(episode.Duration))
	r.writePlain("Stream: %s\n", r.catalog.StreamURL(episode.ID))
	return nil
}

// EpisodesCreate creates an episode without attaching an audio file.
func (r *Runner) EpisodesCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	episode, err := r.catalog.CreateEpisode(ctx, cmd.IntArg("album-id"), models.EpisodeCreate{
		Title:     cmd.String("title"),
		SortOrder: cmd.Int("sort-order"),
	})
	if err != nil {
		return err
	}

	r.logger.Info("episode created", "id", episode.ID, "title", episode.Title)
	return r.writePlain("✓ Created episode #%d: %s\n", episode.ID, episode.Title)
}

// EpisodesUpdate updates an existing episode.
func (r *Runner) EpisodesUpdate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	episode, err := r.catalog.UpdateEpisode(ctx, cmd.IntArg("id"), models.EpisodeCreate{
		Title:     cmd.String("title"),
		SortOrder: cmd.Int("sort-order"),
	})
	if err != nil {
		return err
	}

	return r.writePlain("✓ Updated episode #%d: %s\n", episode.ID, episode.Title)
}

// EpisodesDelete deletes an episode after confirmation.
func (r *Runner) EpisodesDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	id := cmd.IntArg("id")
	if !cmd.Bool("yes") && !r.confirm(fmt.Sprintf("Delete episode #%d?", id)) {
		return r.writePlain("Aborted\n")
	}

	if err := r.catalog.DeleteEpisode(ctx, id); err != nil {
		return err
	}

	r.logger.Info("episode deleted", "id", id)
	return r.writePlain("✓ Deleted episode #%d\n", id)
}
