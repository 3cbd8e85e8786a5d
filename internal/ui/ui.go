package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/castctl/castctl/internal/catalog"
	"github.com/castctl/castctl/internal/models"
	"github.com/castctl/castctl/internal/player"
	"github.com/castctl/castctl/internal/repositories"
	"github.com/castctl/castctl/internal/shared"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	AlbumListView ViewState = iota
	EpisodeListView
	PlayerView
)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	catalog    *catalog.Client
	cache      *repositories.EpisodeCacheRepository
	controller *player.Controller
	snapshots  <-chan player.Session

	view        ViewState
	width       int
	height      int
	albumList   list.Model
	episodeList list.Model
	episodes    []models.Episode
	current     int
	snapshot    player.Session
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates the player TUI. The snapshots channel carries playback
// state updates from the controller's OnChange hook; the cache, when non-nil,
// backs episode listings when the backend is unreachable.
func NewModel(ctx context.Context, cat *catalog.Client, cache *repositories.EpisodeCacheRepository, controller *player.Controller, snapshots <-chan player.Session) Model {
	albums := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	albums.Title = "Albums"
	albums.SetShowHelp(false)

	episodes := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	episodes.Title = "Episodes"
	episodes.SetShowHelp(false)

	return Model{
		ctx:         ctx,
		catalog:     cat,
		cache:       cache,
		controller:  controller,
		snapshots:   snapshots,
		view:        AlbumListView,
		albumList:   albums,
		episodeList: episodes,
		current:     -1,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchAlbums, m.listenSnapshots)
}

// fetchAlbums loads the album catalog.
func (m Model) fetchAlbums() tea.Msg {
	page, err := m.catalog.ListAlbums(m.ctx)
	if err != nil {
		return albumsFetchedMsg(nil, err)
	}
	return albumsFetchedMsg(page.Items, nil)
}

// fetchEpisodes loads an album's episodes, refreshing the local cache on
// success and falling back to it when the backend is unreachable.
func (m Model) fetchEpisodes(albumID int) tea.Cmd {
	return func() tea.Msg {
		page, err := m.catalog.ListEpisodes(m.ctx, albumID)
		if err != nil {
			if m.cache != nil {
				if cached, cacheErr := m.cache.ListByAlbum(albumID); cacheErr == nil && len(cached) > 0 {
					return episodesFetchedMsg(cached, nil)
				}
			}
			return episodesFetchedMsg(nil, err)
		}

		if m.cache != nil {
			// Cache refresh is best effort; a write failure never blocks browsing.
			_ = m.cache.ReplaceAlbum(albumID, page.Items)
		}

		return episodesFetchedMsg(page.Items, nil)
	}
}

// listenSnapshots waits for the next playback state update.
func (m Model) listenSnapshots() tea.Msg {
	snapshot, ok := <-m.snapshots
	if !ok {
		return snapshotsClosedMsg()
	}
	return playerUpdateMsg(snapshot)
}

// playEpisode loads and starts the episode at index i of the current listing.
func (m *Model) playEpisode(i int) {
	if i < 0 || i >= len(m.episodes) {
		return
	}
	m.current = i
	m.err = nil

	if err := m.controller.Load(m.episodes[i]); err != nil {
		m.err = err
		return
	}
	if err := m.controller.Play(); err != nil {
		m.err = err
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.albumList.SetSize(msg.Width, msg.Height-4)
		m.episodeList.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		return m.updateKeys(msg)

	case Msg:
		return m.updateMsg(msg)
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case AlbumListView:
		if key.Matches(msg, m.keys.enter) {
			if item, ok := m.albumList.SelectedItem().(albumItem); ok {
				m.view = EpisodeListView
				return m, m.fetchEpisodes(item.album.ID)
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.albumList, cmd = m.albumList.Update(msg)
		return m, cmd

	case EpisodeListView:
		switch {
		case key.Matches(msg, m.keys.back):
			m.view = AlbumListView
			return m, nil
		case key.Matches(msg, m.keys.enter):
			m.playEpisode(m.episodeList.Index())
			if m.err == nil {
				m.view = PlayerView
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.episodeList, cmd = m.episodeList.Update(msg)
		return m, cmd

	case PlayerView:
		switch {
		case key.Matches(msg, m.keys.back):
			m.view = EpisodeListView
		case key.Matches(msg, m.keys.toggle):
			if err := m.controller.Toggle(); err != nil {
				m.err = err
			}
		case key.Matches(msg, m.keys.seekFwd):
			m.controller.Seek(m.snapshot.Position + 10)
		case key.Matches(msg, m.keys.seekBck):
			m.controller.Seek(m.snapshot.Position - 10)
		case key.Matches(msg, m.keys.volUp):
			m.controller.SetVolume(m.snapshot.Volume + 0.1)
		case key.Matches(msg, m.keys.volDown):
			m.controller.SetVolume(m.snapshot.Volume - 0.1)
		case key.Matches(msg, m.keys.next):
			m.playEpisode(m.current + 1)
		case key.Matches(msg, m.keys.prev):
			m.playEpisode(m.current - 1)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) updateMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgAlbumsFetched:
		data := msg.data.(struct {
			albums []models.Album
			err    error
		})
		if data.err != nil {
			m.err = data.err
			return m, nil
		}

		items := make([]list.Item, len(data.albums))
		for i, album := range data.albums {
			items[i] = albumItem{album: album}
		}
		m.albumList.SetItems(items)
		return m, nil

	case MsgEpisodesFetched:
		data := msg.data.(struct {
			episodes []models.Episode
			err      error
		})
		if data.err != nil {
			m.err = data.err
			return m, nil
		}

		m.episodes = data.episodes
		items := make([]list.Item, len(data.episodes))
		for i, ep := range data.episodes {
			items[i] = episodeItem{episode: ep}
		}
		m.episodeList.SetItems(items)
		return m, nil

	case MsgPlayerUpdate:
		m.snapshot = msg.data.(player.Session)
		return m, m.listenSnapshots

	case MsgSnapshotsClosed:
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	switch m.view {
	case AlbumListView:
		b.WriteString(m.albumList.View())
	case EpisodeListView:
		b.WriteString(m.episodeList.View())
	case PlayerView:
		b.WriteString(m.playerView())
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

// playerView renders the transport screen.
func (m Model) playerView() string {
	var b strings.Builder

	title := "No track loaded"
	if m.snapshot.CurrentTrack != nil {
		title = m.snapshot.CurrentTrack.Title
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n\n")

	state := "⏸ paused"
	if m.snapshot.Playing {
		state = "▶ playing"
	} else if m.snapshot.Requested {
		state = "… starting"
	}
	b.WriteString(styles.ok.Render(state))
	b.WriteString("\n\n")

	b.WriteString(m.progressBar())
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf(
		"%s / %s",
		shared.FormatDuration(int(m.snapshot.Position)),
		shared.FormatDuration(int(m.snapshot.Duration)),
	))
	b.WriteString("\n\n")
	b.WriteString(styles.help.Render(fmt.Sprintf("Volume: %d%%", int(m.snapshot.Volume*100))))

	return b.String()
}

func (m Model) progressBar() string {
	width := m.width - 4
	if width < 10 {
		width = 40
	}

	frac := 0.0
	if m.snapshot.Duration > 0 {
		frac = m.snapshot.Position / m.snapshot.Duration
	}
	if frac > 1 {
		frac = 1
	}

	filled := int(frac * float64(width))
	return styles.ok.Render(strings.Repeat("█", filled)) + styles.help.Render(strings.Repeat("░", width-filled))
}
