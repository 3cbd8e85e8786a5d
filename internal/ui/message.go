package ui

import (
	"github.com/castctl/castctl/internal/models"
	"github.com/castctl/castctl/internal/player"
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var _ tea.Msg = Msg{}

const (
	MsgAlbumsFetched MsgKind = iota
	MsgEpisodesFetched
	MsgPlayerUpdate
	MsgSnapshotsClosed
)

// albumsFetchedMsg is the constructor for [MsgAlbumsFetched]
func albumsFetchedMsg(albums []models.Album, err error) Msg {
	return Msg{
		kind: MsgAlbumsFetched,
		data: struct {
			albums []models.Album
			err    error
		}{albums, err},
	}
}

// episodesFetchedMsg is the constructor for [MsgEpisodesFetched]
func episodesFetchedMsg(episodes []models.Episode, err error) Msg {
	return Msg{
		kind: MsgEpisodesFetched,
		data: struct {
			episodes []models.Episode
			err      error
		}{episodes, err},
	}
}

// playerUpdateMsg is the constructor for [MsgPlayerUpdate]
func playerUpdateMsg(snapshot player.Session) Msg {
	return Msg{kind: MsgPlayerUpdate, data: snapshot}
}

// snapshotsClosedMsg is the constructor for [MsgSnapshotsClosed]
func snapshotsClosedMsg() Msg {
	return Msg{kind: MsgSnapshotsClosed}
}
