package domain

import "errors"

// Sentinel errors for the application.
var (
	ErrNotConnected        = errors.New("not connected")
	ErrEmptyMessage        = errors.New("message text is empty")
	ErrPeerOffline         = errors.New("peer is not online")
	ErrFileTooLarge        = errors.New("file exceeds upload size limit")
	ErrUnsupportedFileType = errors.New("file type not accepted")
	ErrUploadFailed        = errors.New("upload failed")
	ErrUnknownEvent        = errors.New("unknown event")
	ErrMalformedEvent      = errors.New("malformed event payload")
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrClosed              = errors.New("closed")
)
