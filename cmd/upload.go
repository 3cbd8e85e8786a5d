package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/castctl/castctl/internal/api"
	"github.com/castctl/castctl/internal/shared"
	"github.com/castctl/castctl/internal/uploads"
	"github.com/urfave/cli/v3"
)

// UploadFile uploads a single audio file as a new episode.
func (r *Runner) UploadFile(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	albumID := cmd.IntArg("album-id")
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to an audio file", shared.ErrMissingArgument)
	}

	title := cmd.String("title")
	if title == "" {
		title = uploads.DefaultTitle(filepath.Base(path))
	}

	r.logger.Info("uploading", "file", path, "album", albumID, "title", title)

	episode, err := r.pipeline.UploadOne(ctx, albumID, path, title, func(percent int) {
		r.writePlain("\r%s: %d%%", title, percent)
	})
	if err != nil {
		r.writePlain("\n")
		return err
	}

	return r.writePlain("\n✓ Uploaded episode #%d: %s (%s)\n", episode.ID, episode.Title, shared.FormatDuration(episode.Duration))
}

// UploadBatch uploads multiple audio files sequentially, printing per-file
// progress and a final accounting that includes every failure.
func (r *Runner) UploadBatch(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	albumID := cmd.IntArg("album-id")
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one audio file", shared.ErrMissingArgument)
	}

	if cmd.Bool("server-batch") {
		return r.serverBatch(ctx, albumID, paths)
	}

	progress := make(chan uploads.ProgressUpdate, 64)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case uploads.BatchStart:
				r.writePlain("Uploading %d files\n", update.Total)
			case uploads.FileStart:
				r.writePlain("[%d/%d] %s\n", update.Index, update.Total, update.File)
			case uploads.FileProgress:
				r.writePlain("\r  %d%%", update.Percent)
			case uploads.FileDone:
				r.writePlain("\r  ✓ done\n")
			case uploads.FileFailed:
				r.writePlain("\r  ✗ %s\n", update.Message)
			case uploads.BatchDone:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	results := r.pipeline.UploadBatch(ctx, progress, albumID, paths)
	close(progress)
	<-done

	succeeded := 0
	t := r.newTable("File", "Result")
	for _, result := range results {
		if result.Failed() {
			t.AppendRow([]any{filepath.Base(result.Path), fmt.Sprintf("failed: %v", result.Err)})
			continue
		}
		succeeded++
		t.AppendRow([]any{filepath.Base(result.Path), fmt.Sprintf("episode #%d", result.Episode.ID)})
	}
	t.Render()
	r.writePlain("%d/%d uploaded\n", succeeded, len(results))

	if succeeded < len(results) {
		return fmt.Errorf("%w: %d of %d files failed", shared.ErrUploadFailed, len(results)-succeeded, len(results))
	}
	return nil
}

// serverBatch sends every file in a single multipart request and lets the
// backend create the episodes.
func (r *Runner) serverBatch(ctx context.Context, albumID int, paths []string) error {
	files := make([]api.FilePart, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", shared.ErrUploadFailed, path, err)
		}
		files = append(files, api.FilePart{
			Field:    "files",
			Filename: filepath.Base(path),
			Data:     data,
		})
	}

	result, err := r.catalog.BatchUpload(ctx, albumID, files, func(sent, total int64) {
		if total > 0 {
			r.writePlain("\r%d%%", int(sent*100/total))
		}
	})
	if err != nil {
		r.writePlain("\n")
		return err
	}

	r.writePlain("\n%d/%d uploaded\n", result.Uploaded, result.Total)
	if !result.Success {
		return fmt.Errorf("%w: backend reported %d of %d files failed", shared.ErrUploadFailed, result.Total-result.Uploaded, result.Total)
	}
	return nil
}
