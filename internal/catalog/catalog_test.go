package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/castctl/castctl/internal/api"
	"github.com/castctl/castctl/internal/models"
	"github.com/castctl/castctl/internal/shared"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(api.NewClient(api.Opts{BaseURL: server.URL}))
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("ListAlbums", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/admin/albums" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(models.AlbumPage{
				Items: []models.Album{{ID: 1, Title: "Season One"}},
				Total: 1,
			})
		}))

		page, err := client.ListAlbums(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.Total != 1 || page.Items[0].Title != "Season One" {
			t.Errorf("unexpected page: %+v", page)
		}
	})

	t.Run("CreateAlbum", func(t *testing.T) {
		t.Run("applies the default cover", func(t *testing.T) {
			var got models.AlbumCreate
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewDecoder(r.Body).Decode(&got)
				json.NewEncoder(w).Encode(models.Album{ID: 2, Title: got.Title})
			}))

			if _, err := client.CreateAlbum(ctx, models.AlbumCreate{Title: "New"}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.CoverImage != DefaultCover {
				t.Error("expected default cover to be applied")
			}
		})

		t.Run("keeps an explicit cover", func(t *testing.T) {
			var got models.AlbumCreate
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewDecoder(r.Body).Decode(&got)
				json.NewEncoder(w).Encode(models.Album{ID: 2})
			}))

			client.CreateAlbum(ctx, models.AlbumCreate{Title: "New", CoverImage: "custom.png"})
			if got.CoverImage != "custom.png" {
				t.Errorf("expected explicit cover to survive, got %q", got.CoverImage)
			}
		})
	})

	t.Run("error mapping", func(t *testing.T) {
		t.Run("404 carries the backend detail", func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"detail": "Album not found"}`))
			}))

			if _, err := client.GetAlbum(ctx, 99); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("401 maps to unauthorized", func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))

			if err := client.DeleteAlbum(ctx, 1); !errors.Is(err, shared.ErrUnauthorized) {
				t.Errorf("expected ErrUnauthorized, got %v", err)
			}
		})
	})

	t.Run("ListEpisodes", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/admin/albums/3/episodes" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(models.EpisodePage{
				Items:   []models.Episode{{ID: 10, AlbumID: 3, Title: "Pilot"}},
				AlbumID: 3,
			})
		}))

		page, err := client.ListEpisodes(ctx, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Items) != 1 || page.Items[0].Title != "Pilot" {
			t.Errorf("unexpected page: %+v", page)
		}
	})

	t.Run("UploadEpisodeFile", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/admin/episodes/10/upload" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("failed to parse multipart: %v", err)
			}
			if _, _, err := r.FormFile("file"); err != nil {
				t.Errorf("expected file part: %v", err)
			}
			json.NewEncoder(w).Encode(models.Episode{ID: 10, Title: "Pilot", Duration: 90})
		}))

		episode, err := client.UploadEpisodeFile(ctx, 10, "pilot.mp3", []byte("audio"), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if episode.Duration != 90 {
			t.Errorf("expected backend duration, got %d", episode.Duration)
		}
	})

	t.Run("BatchUpload", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/admin/albums/1/episodes/batch-upload" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("failed to parse multipart: %v", err)
			}
			if got := len(r.MultipartForm.File["files"]); got != 2 {
				t.Errorf("expected 2 file parts, got %d", got)
			}
			json.NewEncoder(w).Encode(models.BatchUploadResult{Success: true, Uploaded: 2, Total: 2})
		}))

		result, err := client.BatchUpload(ctx, 1, []api.FilePart{
			{Field: "files", Filename: "a.mp3", Data: []byte("a")},
			{Field: "files", Filename: "b.mp3", Data: []byte("b")},
		}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Success || result.Uploaded != 2 {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("StreamURL", func(t *testing.T) {
		client := NewClient(api.NewClient(api.Opts{BaseURL: "http://example.test"}))
		if got := client.StreamURL(42); got != "http://example.test/api/stream/42" {
			t.Errorf("unexpected stream URL %q", got)
		}
	})
}
