package exception

import "errors"

// Wire errors
var (
	ErrFrameTooLarge    = errors.New("wire: frame exceeds max size")
	ErrShortFrame       = errors.New("wire: incomplete frame")
	ErrEmptyMessage     = errors.New("wire: empty message")
	ErrBadMessageType   = errors.New("wire: bad message type field")
	ErrUnsupportedStamp = errors.New("wire: unsupported timestamp format")
)
