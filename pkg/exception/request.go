package exception

import "errors"

// Request errors
var (
	ErrRequestTimeout   = errors.New("request: timed out")
	ErrDuplicateRequest = errors.New("request: id already pending")
	ErrRequestCanceled  = errors.New("request: canceled")
	ErrUnexpectedResult = errors.New("request: result type mismatch")
	ErrNilCallback      = errors.New("request: nil subscription callback")
	ErrUnknownTopic     = errors.New("request: unknown subscription id")
)
