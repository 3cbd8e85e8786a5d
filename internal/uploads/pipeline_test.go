package uploads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/castctl/castctl/internal/api"
	"github.com/castctl/castctl/internal/catalog"
	"github.com/castctl/castctl/internal/models"
	"github.com/castctl/castctl/internal/shared"
	tu "github.com/castctl/castctl/internal/testing"
)

// fakeBackend serves the episode create and upload endpoints. Uploads whose
// episode title appears in failTitles are rejected with a 500.
type fakeBackend struct {
	nextID     int
	titles     map[int]string // episode ID -> title
	failTitles map[string]bool
}

func newFakeBackend(failTitles ...string) *fakeBackend {
	fail := make(map[string]bool, len(failTitles))
	for _, title := range failTitles {
		fail[title] = true
	}
	return &fakeBackend{nextID: 1, titles: map[int]string{}, failTitles: fail}
}

func (f *fakeBackend) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/admin/albums/{album}/episodes", func(w http.ResponseWriter, r *http.Request) {
		var data models.EpisodeCreate
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			t.Errorf("failed to decode episode create: %v", err)
		}

		id := f.nextID
		f.nextID++
		f.titles[id] = data.Title

		json.NewEncoder(w).Encode(models.Episode{ID: id, AlbumID: 1, Title: data.Title})
	})

	mux.HandleFunc("POST /api/admin/episodes/{id}/upload", func(w http.ResponseWriter, r *http.Request) {
		var id int
		fmt.Sscanf(r.PathValue("id"), "%d", &id)

		if f.failTitles[f.titles[id]] {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail": "storage error"}`))
			return
		}

		json.NewEncoder(w).Encode(models.Episode{ID: id, AlbumID: 1, Title: f.titles[id], Duration: 60})
	})

	return mux
}

func newTestPipeline(t *testing.T, backend *fakeBackend, opts Opts) *Pipeline {
	t.Helper()
	server := httptest.NewServer(backend.handler(t))
	t.Cleanup(server.Close)

	opts.Catalog = catalog.NewClient(api.NewClient(api.Opts{BaseURL: server.URL}))
	return NewPipeline(opts)
}

func audioFile(t *testing.T, name string, size int) string {
	t.Helper()
	return tu.WriteTempFile(t, name, make([]byte, size))
}

func TestDefaultTitle(t *testing.T) {
	cases := map[string]string{
		"intro.mp3":       "intro",
		"track.final.mp3": "track.final",
		"noext":           "noext",
		"/a/b/pilot.flac": "pilot",
	}

	for input, want := range cases {
		if got := DefaultTitle(input); got != want {
			t.Errorf("DefaultTitle(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestPipeline(t *testing.T) {
	ctx := context.Background()

	t.Run("preflight", func(t *testing.T) {
		pipeline := NewPipeline(Opts{MaxFileSize: 1024})

		t.Run("rejects unsupported extensions", func(t *testing.T) {
			path := tu.WriteTempFile(t, "notes.txt", []byte("text"))
			if _, err := pipeline.preflight(path); !errors.Is(err, shared.ErrUnsupportedFileType) {
				t.Errorf("expected ErrUnsupportedFileType, got %v", err)
			}
		})

		t.Run("rejects empty files", func(t *testing.T) {
			path := tu.WriteTempFile(t, "empty.mp3", nil)
			if _, err := pipeline.preflight(path); !errors.Is(err, shared.ErrEmptyFile) {
				t.Errorf("expected ErrEmptyFile, got %v", err)
			}
		})

		t.Run("rejects oversized files", func(t *testing.T) {
			path := audioFile(t, "big.mp3", 2048)
			if _, err := pipeline.preflight(path); !errors.Is(err, shared.ErrFileTooLarge) {
				t.Errorf("expected ErrFileTooLarge, got %v", err)
			}
		})

		t.Run("rejects missing files", func(t *testing.T) {
			if _, err := pipeline.preflight("/nonexistent/file.mp3"); !errors.Is(err, shared.ErrUploadFailed) {
				t.Errorf("expected ErrUploadFailed, got %v", err)
			}
		})

		t.Run("extension check is case insensitive", func(t *testing.T) {
			path := audioFile(t, "loud.MP3", 16)
			if _, err := pipeline.preflight(path); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	})

	t.Run("UploadOne", func(t *testing.T) {
		t.Run("creates episode and attaches audio", func(t *testing.T) {
			pipeline := newTestPipeline(t, newFakeBackend(), Opts{})
			path := audioFile(t, "pilot.mp3", 4096)

			episode, err := pipeline.UploadOne(ctx, 1, path, "", nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if episode.Title != "pilot" {
				t.Errorf("expected default title, got %q", episode.Title)
			}
			if pipeline.Uploading() {
				t.Error("expected uploading flag to be cleared")
			}
		})

		t.Run("progress is monotonic and reaches 100", func(t *testing.T) {
			pipeline := newTestPipeline(t, newFakeBackend(), Opts{})
			path := audioFile(t, "pilot.mp3", 300*1024)

			var percents []int
			if _, err := pipeline.UploadOne(ctx, 1, path, "Pilot", func(percent int) {
				percents = append(percents, percent)
			}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(percents) == 0 {
				t.Fatal("expected progress callbacks")
			}
			for i := 1; i < len(percents); i++ {
				if percents[i] <= percents[i-1] {
					t.Fatalf("progress not strictly increasing: %v", percents)
				}
			}
			if percents[len(percents)-1] != 100 {
				t.Errorf("expected final percent 100, got %d", percents[len(percents)-1])
			}
		})

		t.Run("clears uploading flag on failure", func(t *testing.T) {
			pipeline := newTestPipeline(t, newFakeBackend("doomed"), Opts{})
			path := audioFile(t, "doomed.mp3", 64)

			if _, err := pipeline.UploadOne(ctx, 1, path, "doomed", nil); !errors.Is(err, shared.ErrUploadFailed) {
				t.Errorf("expected ErrUploadFailed, got %v", err)
			}
			if pipeline.Uploading() {
				t.Error("expected uploading flag to be cleared after failure")
			}
		})
	})

	t.Run("UploadBatch", func(t *testing.T) {
		t.Run("continues past mid-batch failure", func(t *testing.T) {
			pipeline := newTestPipeline(t, newFakeBackend("b"), Opts{})
			paths := []string{
				audioFile(t, "a.mp3", 64),
				audioFile(t, "b.mp3", 64),
				audioFile(t, "c.mp3", 64),
			}

			results := pipeline.UploadBatch(ctx, nil, 1, paths)

			if len(results) != 3 {
				t.Fatalf("expected one result per file, got %d", len(results))
			}
			if results[0].Failed() || results[2].Failed() {
				t.Error("expected first and last files to succeed")
			}
			if !results[1].Failed() {
				t.Error("expected middle file to fail")
			}
			if results[1].Episode != nil {
				t.Error("failed result must not carry an episode")
			}
			if pipeline.Uploading() {
				t.Error("expected uploading flag to be cleared")
			}
		})

		t.Run("results preserve submission order", func(t *testing.T) {
			pipeline := newTestPipeline(t, newFakeBackend(), Opts{})
			paths := []string{
				audioFile(t, "third.mp3", 64),
				audioFile(t, "first.mp3", 64),
				audioFile(t, "second.mp3", 64),
			}

			results := pipeline.UploadBatch(ctx, nil, 1, paths)

			for i, result := range results {
				if result.Path != paths[i] {
					t.Errorf("result %d out of order: got %s", i, result.Path)
				}
			}
		})

		t.Run("emits phase sequence with full accounting", func(t *testing.T) {
			pipeline := newTestPipeline(t, newFakeBackend("bad"), Opts{})
			paths := []string{
				audioFile(t, "good.mp3", 64),
				audioFile(t, "bad.mp3", 64),
			}

			progress := make(chan ProgressUpdate, 256)
			pipeline.UploadBatch(ctx, progress, 1, paths)
			close(progress)

			var phases []Phase
			var last ProgressUpdate
			for update := range progress {
				phases = append(phases, update.Phase)
				last = update
			}

			if phases[0] != BatchStart {
				t.Errorf("expected batch to open with BatchStart, got %v", phases[0])
			}
			if last.Phase != BatchDone {
				t.Errorf("expected batch to close with BatchDone, got %v", last.Phase)
			}

			var failed, done int
			for _, phase := range phases {
				switch phase {
				case FileFailed:
					failed++
				case FileDone:
					done++
				}
			}
			if done != 1 || failed != 1 {
				t.Errorf("expected 1 done and 1 failed, got %d done %d failed", done, failed)
			}
		})

		t.Run("cancellation fails remaining files without aborting accounting", func(t *testing.T) {
			pipeline := newTestPipeline(t, newFakeBackend(), Opts{})
			paths := []string{
				audioFile(t, "a.mp3", 64),
				audioFile(t, "b.mp3", 64),
				audioFile(t, "c.mp3", 64),
			}

			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			results := pipeline.UploadBatch(cancelled, nil, 1, paths)

			if len(results) != 3 {
				t.Fatalf("expected one result per file, got %d", len(results))
			}
			for i, result := range results {
				if !result.Failed() {
					t.Errorf("expected result %d to fail after cancellation", i)
				}
				if !strings.Contains(result.Err.Error(), context.Canceled.Error()) {
					t.Errorf("expected cancellation cause in error, got %v", result.Err)
				}
			}
		})

		t.Run("progress channel never blocks the upload", func(t *testing.T) {
			pipeline := newTestPipeline(t, newFakeBackend(), Opts{})
			paths := []string{audioFile(t, "a.mp3", 300*1024)}

			// Unbuffered channel with no reader: every send must be dropped
			// rather than deadlocking the batch.
			progress := make(chan ProgressUpdate)
			results := pipeline.UploadBatch(ctx, progress, 1, paths)

			if len(results) != 1 || results[0].Failed() {
				t.Errorf("expected upload to succeed despite blocked channel: %+v", results)
			}
		})
	})
}
