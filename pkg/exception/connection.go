package exception

import "errors"

// Connection errors
var (
	ErrNotConnected     = errors.New("connection: not connected")
	ErrConnectionClosed = errors.New("connection: closed")
	ErrAlreadyConnected = errors.New("connection: connect already in progress")
	ErrHandshakeTimeout = errors.New("connection: handshake timed out")
	ErrHandshakeFailed  = errors.New("connection: handshake failed")
)
