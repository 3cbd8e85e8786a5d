package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrUnauthorized     = fmt.Errorf("unauthorized")
	ErrSessionExpired   = fmt.Errorf("session expired")

	// API and upload errors
	ErrAPIRequest          = fmt.Errorf("API request failed")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")
	ErrAlbumNotFound       = fmt.Errorf("album not found")
	ErrEpisodeNotFound     = fmt.Errorf("episode not found")
	ErrUploadFailed        = fmt.Errorf("upload failed")
	ErrFileTooLarge        = fmt.Errorf("file exceeds size limit")
	ErrUnsupportedFileType = fmt.Errorf("unsupported file type")
	ErrEmptyFile           = fmt.Errorf("file is empty")

	// Playback errors
	ErrPlaybackFailed = fmt.Errorf("playback failed")
	ErrNoTrackLoaded  = fmt.Errorf("no track loaded")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
