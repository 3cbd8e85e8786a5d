// package uploads implements the sequential batch upload pipeline.
package uploads

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/castctl/castctl/internal/catalog"
	"github.com/castctl/castctl/internal/models"
	"github.com/castctl/castctl/internal/shared"
	"github.com/charmbracelet/log"
)

// FileResult is one file's terminal outcome within a batch.
type FileResult struct {
	Path    string
	Title   string
	Episode *models.Episode // nil when the upload failed
	Err     error           // nil when the upload succeeded
}

// Failed reports whether this file's attempt ended in failure.
func (r FileResult) Failed() bool {
	return r.Err != nil
}

// Pipeline uploads audio files one at a time: server load stays flat and
// progress is always attributable to a single file.
type Pipeline struct {
	catalog      *catalog.Client
	logger       *log.Logger
	maxFileSize  int64
	allowedTypes map[string]bool
	uploading    atomic.Bool
}

// Opts configures a [Pipeline]. Limits default to the backend's own
// constraints (100 MB, mp3/m4a/flac).
type Opts struct {
	Catalog      *catalog.Client
	Logger       *log.Logger
	MaxFileSize  int64
	AllowedTypes []string
}

// NewPipeline creates an upload pipeline.
func NewPipeline(opts Opts) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 104857600
	}
	if len(opts.AllowedTypes) == 0 {
		opts.AllowedTypes = []string{"mp3", "m4a", "flac"}
	}

	allowed := make(map[string]bool, len(opts.AllowedTypes))
	for _, ext := range opts.AllowedTypes {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	return &Pipeline{
		catalog:      opts.Catalog,
		logger:       opts.Logger,
		maxFileSize:  opts.MaxFileSize,
		allowedTypes: allowed,
	}
}

// Uploading reports whether a batch is currently in flight.
func (p *Pipeline) Uploading() bool {
	return p.uploading.Load()
}

// DefaultTitle derives an episode title from a filename by stripping exactly
// the final extension: "track.final.mp3" becomes "track.final".
func DefaultTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// preflight reads and validates a file against the backend's constraints so a
// doomed upload fails before any bytes travel.
func (p *Pipeline) preflight(path string) ([]byte, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !p.allowedTypes[ext] {
		return nil, fmt.Errorf("%w: .%s", shared.ErrUnsupportedFileType, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUploadFailed, err)
	}
	if info.Size() == 0 {
		return nil, shared.ErrEmptyFile
	}
	if info.Size() > p.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", shared.ErrFileTooLarge, info.Size(), p.maxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUploadFailed, err)
	}

	return data, nil
}

// UploadOne uploads a single file into an album: it creates the episode record
// (title defaults to the file's base name minus extension) and attaches the
// audio. onProgress receives the rounded transmission percentage, monotonic
// within the file.
func (p *Pipeline) UploadOne(ctx context.Context, albumID int, path, title string, onProgress func(percent int)) (*models.Episode, error) {
	if p.catalog == nil {
		return nil, fmt.Errorf("%w: catalog client not initialized", shared.ErrServiceUnavailable)
	}

	wasIdle := p.uploading.CompareAndSwap(false, true)
	if wasIdle {
		defer p.uploading.Store(false)
	}

	if title == "" {
		title = DefaultTitle(path)
	}

	data, err := p.preflight(path)
	if err != nil {
		return nil, err
	}

	episode, err := p.catalog.CreateEpisode(ctx, albumID, models.EpisodeCreate{Title: title})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create episode: %v", shared.ErrUploadFailed, err)
	}

	lastPercent := -1
	var report func(sent, total int64)
	if onProgress != nil {
		report = func(sent, total int64) {
			if total <= 0 {
				return
			}
			percent := int(math.Round(float64(sent) / float64(total) * 100))
			if percent > lastPercent {
				lastPercent = percent
				onProgress(percent)
			}
		}
	}

	uploaded, err := p.catalog.UploadEpisodeFile(ctx, episode.ID, filepath.Base(path), data, report)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUploadFailed, err)
	}

	p.logger.Info("uploaded episode", "album", albumID, "episode", uploaded.ID, "title", uploaded.Title)
	return uploaded, nil
}

// UploadBatch processes files strictly sequentially, one in flight at a time.
// Each file's terminal outcome is appended to the returned slice regardless of
// prior failures; a single failure never aborts the remaining batch. The
// result always has exactly one entry per submitted file. Cancellation is
// cooperative and checked between files only; an in-flight upload runs to
// completion or network failure.
func (p *Pipeline) UploadBatch(ctx context.Context, progress chan<- ProgressUpdate, albumID int, paths []string) []FileResult {
	batchID := shared.GenerateID()
	total := len(paths)
	results := make([]FileResult, 0, total)

	p.uploading.Store(true)
	defer p.uploading.Store(false)

	p.logger.Info("starting batch upload", "batch", batchID, "album", albumID, "files", total)
	sendProgress(progress, batchStartUpdate(total))

	completed := 0
	for i, path := range paths {
		title := DefaultTitle(path)

		if err := ctx.Err(); err != nil {
			// Cancelled between files: remaining files still get a terminal
			// outcome so the accounting covers the full batch.
			results = append(results, FileResult{Path: path, Title: title, Err: fmt.Errorf("%w: %v", shared.ErrUploadFailed, err)})
			completed++
			sendProgress(progress, fileFailedUpdate(completed, total, title, err))
			continue
		}

		sendProgress(progress, fileStartUpdate(i+1, completed, total, title))

		episode, err := p.UploadOne(ctx, albumID, path, title, func(percent int) {
			sendProgress(progress, fileProgressUpdate(i+1, completed, total, title, percent))
		})

		result := FileResult{Path: path, Title: title, Episode: episode, Err: err}
		results = append(results, result)
		completed++

		if err != nil {
			p.logger.Warn("file upload failed", "batch", batchID, "file", path, "err", err)
			sendProgress(progress, fileFailedUpdate(completed, total, title, err))
		} else {
			sendProgress(progress, fileDoneUpdate(completed, total, title))
		}
	}

	succeeded := 0
	for _, r := range results {
		if !r.Failed() {
			succeeded++
		}
	}

	p.logger.Info("batch upload finished", "batch", batchID, "succeeded", succeeded, "failed", total-succeeded)
	sendProgress(progress, batchDoneUpdate(succeeded, total))

	return results
}
