package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/castctl/castctl/internal/formatter"
	"github.com/castctl/castctl/internal/models"
	"github.com/urfave/cli/v3"
)

// AlbumsList prints the full album catalog.
func (r *Runner) AlbumsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	page, err := r.catalog.ListAlbums(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, true)
	}

	t := r.newTable("ID", "Title", "Episodes", "Sort", "Created")
	for _, album := range page.Items {
		t.AppendRow([]any{album.ID, album.Title, album.EpisodeCount, album.SortOrder, album.CreatedAt})
	}
	t.Render()
	return r.writePlain("%d albums\n", page.Total)
}

// AlbumsGet prints a single album.
func (r *Runner) AlbumsGet(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	album, err := r.catalog.GetAlbum(ctx, cmd.IntArg("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(album, true)
	}

	r.writePlain("Album #%d: %s\n", album.ID, album.Title)
	if album.Description != nil && *album.Description != "" {
		r.writePlain("%s\n", *album.Description)
	}
	r.writePlain("Episodes: %d\n", album.EpisodeCount)
	return nil
}

// AlbumsCreate creates a new album.
func (r *Runner) AlbumsCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	data := models.AlbumCreate{
		Title:     cmd.String("title"),
		SortOrder: cmd.Int("sort-order"),
	}
	if desc := cmd.String("description"); desc != "" {
		data.Description = &desc
	}

	album, err := r.catalog.CreateAlbum(ctx, data)
	if err != nil {
		return err
	}

	r.logger.Info("album created", "id", album.ID, "title", album.Title)
	return r.writePlain("✓ Created album #%d: %s\n", album.ID, album.Title)
}

// AlbumsUpdate updates an existing album.
func (r *Runner) AlbumsUpdate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	data := models.AlbumCreate{
		Title:     cmd.String("title"),
		SortOrder: cmd.Int("sort-order"),
	}
	if desc := cmd.String("description"); desc != "" {
		data.Description = &desc
	}

	album, err := r.catalog.UpdateAlbum(ctx, cmd.IntArg("id"), data)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Updated album #%d: %s\n", album.ID, album.Title)
}

// AlbumsDelete deletes an album after confirmation.
func (r *Runner) AlbumsDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	id := cmd.IntArg("id")
	if !cmd.Bool("yes") && !r.confirm(fmt.Sprintf("Delete album #%d and all of its episodes?", id)) {
		return r.writePlain("Aborted\n")
	}

	if err := r.catalog.DeleteAlbum(ctx, id); err != nil {
		return err
	}

	r.logger.Info("album deleted", "id", id)
	return r.writePlain("✓ Deleted album #%d\n", id)
}

// AlbumsExport writes an album and its episodes as csv, markdown, or text.
func (r *Runner) AlbumsExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	id := cmd.IntArg("id")

	album, err := r.catalog.GetAlbum(ctx, id)
	if err != nil {
		return err
	}

	page, err := r.catalog.ListEpisodes(ctx, id)
	if err != nil {
		return err
	}

	data, err := formatter.Export(&formatter.AlbumExport{
		Album:    *album,
		Episodes: page.Items,
	}, cmd.String("format"))
	if err != nil {
		return err
	}

	if outputPath := cmd.String("output"); outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		return r.writePlain("✓ Exported album #%d to %s\n", id, outputPath)
	}

	_, err = r.output.Write(data)
	return err
}

// confirm prompts the user for a yes/no answer on stdin.
func (r *Runner) confirm(prompt string) bool {
	r.writePlain("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
