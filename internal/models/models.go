// package models defines the data model for the audio catalog admin client
package models

// User represents an administrator account as reported by the backend.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}

// Album represents an audio album in the catalog.
type Album struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Description  *string `json:"description"`
	CoverImage   string  `json:"cover_image"`
	SortOrder    int     `json:"sort_order"`
	EpisodeCount int     `json:"episode_count"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// AlbumCreate is the payload for creating or updating an album.
type AlbumCreate struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	CoverImage  string  `json:"cover_image,omitempty"`
	SortOrder   int     `json:"sort_order,omitempty"`
}

// Episode represents a single audio episode within an album.
type Episode struct {
	ID        int    `json:"id"`
	AlbumID   int    `json:"album_id"`
	Title     string `json:"title"`
	Duration  int    `json:"duration"` // seconds
	FileSize  int64  `json:"file_size,omitempty"`
	SortOrder int    `json:"sort_order"`
	CreatedAt string `json:"created_at"`
	StreamURL string `json:"stream_url,omitempty"`
}

// EpisodeCreate is the payload for creating or updating an episode.
type EpisodeCreate struct {
	Title     string `json:"title"`
	SortOrder int    `json:"sort_order,omitempty"`
}

// AlbumPage is the paginated album listing returned by the backend.
type AlbumPage struct {
	Items []Album `json:"items"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
}

// EpisodePage is the episode listing for a single album.
type EpisodePage struct {
	Items   []Episode `json:"items"`
	AlbumID int       `json:"album_id"`
}

// BatchUploadResult is the backend's accounting for a server-side batch upload.
type BatchUploadResult struct {
	Success  bool `json:"success"`
	Uploaded int  `json:"uploaded"`
	Total    int  `json:"total"`
}
