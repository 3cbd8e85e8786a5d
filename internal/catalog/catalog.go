// Typed CRUD wrappers for the album and episode admin endpoints.
package catalog

import (
	"context"
	"fmt"

	"github.com/castctl/castctl/internal/api"
	"github.com/castctl/castctl/internal/models"
)

// DefaultCover is used when an album is created without a cover image, matching
// the backend's placeholder artwork convention.
const DefaultCover = "data:image/svg+xml;base64,PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciIHdpZHRoPSIyMDAiIGhlaWdodD0iMjAwIj48cmVjdCB3aWR0aD0iMjAwIiBoZWlnaHQ9IjIwMCIgZmlsbD0iIzdjM2FlZCIvPjwvc3ZnPg=="

// Client provides typed access to the album/episode admin API. All requests go
// through the shared [api.Client], which handles bearer injection and 401
// eviction; this layer only maps paths and payloads.
type Client struct {
	api *api.Client
}

// NewClient creates a catalog client over the shared transport.
func NewClient(apiClient *api.Client) *Client {
	return &Client{api: apiClient}
}

// decode runs the response through error mapping then unmarshals into v.
func decode(resp *api.Response, err error, v any) error {
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return resp.Decode(v)
}

// ListAlbums retrieves the album catalog.
func (c *Client) ListAlbums(ctx context.Context) (*models.AlbumPage, error) {
	var page models.AlbumPage
	resp, err := c.api.Get(ctx, "/api/admin/albums")
	if err := decode(resp, err, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetAlbum retrieves a single album by ID.
func (c *Client) GetAlbum(ctx context.Context, id int) (*models.Album, error) {
	var album models.Album
	resp, err := c.api.Get(ctx, fmt.Sprintf("/api/admin/albums/%d", id))
	if err := decode(resp, err, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// CreateAlbum creates a new album, applying [DefaultCover] when none is given.
func (c *Client) CreateAlbum(ctx context.Context, data models.AlbumCreate) (*models.Album, error) {
	if data.CoverImage == "" {
		data.CoverImage = DefaultCover
	}

	var album models.Album
	resp, err := c.api.Post(ctx, "/api/admin/albums", data)
	if err := decode(resp, err, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// UpdateAlbum modifies an existing album.
func (c *Client) UpdateAlbum(ctx context.Context, id int, data models.AlbumCreate) (*models.Album, error) {
	var album models.Album
	resp, err := c.api.Put(ctx, fmt.Sprintf("/api/admin/albums/%d", id), data)
	if err := decode(resp, err, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// DeleteAlbum removes an album by ID.
func (c *Client) DeleteAlbum(ctx context.Context, id int) error {
	resp, err := c.api.Delete(ctx, fmt.Sprintf("/api/admin/albums/%d", id))
	return decode(resp, err, nil)
}

// ListEpisodes retrieves all episodes for an album.
func (c *Client) ListEpisodes(ctx context.Context, albumID int) (*models.EpisodePage, error) {
	var page models.EpisodePage
	resp, err := c.api.Get(ctx, fmt.Sprintf("/api/admin/albums/%d/episodes", albumID))
	if err := decode(resp, err, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetEpisode retrieves a single episode by ID.
func (c *Client) GetEpisode(ctx context.Context, id int) (*models.Episode, error) {
	var episode models.Episode
	resp, err := c.api.Get(ctx, fmt.Sprintf("/api/admin/episodes/%d", id))
	if err := decode(resp, err, &episode); err != nil {
		return nil, err
	}
	return &episode, nil
}

// CreateEpisode creates an episode record within an album. The audio itself is
// attached afterwards via the upload pipeline.
func (c *Client) CreateEpisode(ctx context.Context, albumID int, data models.EpisodeCreate) (*models.Episode, error) {
	var episode models.Episode
	resp, err := c.api.Post(ctx, fmt.Sprintf("/api/admin/albums/%d/episodes", albumID), data)
	if err := decode(resp, err, &episode); err != nil {
		return nil, err
	}
	return &episode, nil
}

// UpdateEpisode modifies an existing episode.
func (c *Client) UpdateEpisode(ctx context.Context, id int, data models.EpisodeCreate) (*models.Episode, error) {
	var episode models.Episode
	resp, err := c.api.Put(ctx, fmt.Sprintf("/api/admin/episodes/%d", id), data)
	if err := decode(resp, err, &episode); err != nil {
		return nil, err
	}
	return &episode, nil
}

// DeleteEpisode removes an episode by ID.
func (c *Client) DeleteEpisode(ctx context.Context, id int) error {
	resp, err := c.api.Delete(ctx, fmt.Sprintf("/api/admin/episodes/%d", id))
	return decode(resp, err, nil)
}

// UploadEpisodeFile attaches an audio file to an existing episode via the
// single-file upload endpoint. Progress reports transmitted bytes.
func (c *Client) UploadEpisodeFile(ctx context.Context, episodeID int, filename string, data []byte, progress func(sent, total int64)) (*models.Episode, error) {
	files := []api.FilePart{{Field: "file", Filename: filename, Data: data}}

	var episode models.Episode
	resp, err := c.api.PostMultipart(ctx, fmt.Sprintf("/api/admin/episodes/%d/upload", episodeID), nil, files, progress)
	if err := decode(resp, err, &episode); err != nil {
		return nil, err
	}
	return &episode, nil
}

// BatchUpload sends several files in one request to the server-side batch
// endpoint. The backend creates one episode per file; per-file attribution is
// the client-side pipeline's job, this call only reports the aggregate.
func (c *Client) BatchUpload(ctx context.Context, albumID int, files []api.FilePart, progress func(sent, total int64)) (*models.BatchUploadResult, error) {
	var result models.BatchUploadResult
	resp, err := c.api.PostMultipart(ctx, fmt.Sprintf("/api/admin/albums/%d/episodes/batch-upload", albumID), nil, files, progress)
	if err := decode(resp, err, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StreamURL returns the bearer-authenticated media URL for an episode.
func (c *Client) StreamURL(id int) string {
	return fmt.Sprintf("%s/api/stream/%d", c.api.BaseURL(), id)
}
