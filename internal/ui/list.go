package ui

import (
	"fmt"

	"github.com/castctl/castctl/internal/models"
	"github.com/castctl/castctl/internal/shared"
	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = albumItem{}
	_ list.Item = episodeItem{}
)

// albumItem wraps [models.Album] to implement [list.Item].
type albumItem struct {
	album models.Album
}

func (i albumItem) FilterValue() string { return i.album.Title }
func (i albumItem) Title() string       { return i.album.Title }
func (i albumItem) Description() string {
	desc := fmt.Sprintf("%d episodes", i.album.EpisodeCount)
	if i.album.Description != nil && *i.album.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, *i.album.Description)
	}
	return desc
}

// episodeItem wraps [models.Episode] to implement [list.Item].
type episodeItem struct {
	episode models.Episode
}

func (i episodeItem) FilterValue() string { return i.episode.Title }
func (i episodeItem) Title() string       { return i.episode.Title }
func (i episodeItem) Description() string {
	return fmt.Sprintf("#%d • %s", i.episode.SortOrder, shared.FormatDuration(i.episode.Duration))
}
