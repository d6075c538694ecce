package schema

import (
	"fmt"
	"strings"
)

// ServerError is an application-level error message pushed by the gateway,
// optionally correlated to a request id. It is a first-class request
// outcome, distinct from a transport failure or a timeout.
type ServerError struct {
	ReqID int64
	Code  int64
	Msg   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d (req %d): %s", e.Code, e.ReqID, e.Msg)
}

// IsWarning reports whether the message text marks this as non-fatal.
func (e *ServerError) IsWarning() bool {
	return strings.Contains(strings.ToLower(e.Msg), "warning")
}

// Error code the gateway uses when no head timestamp exists for a contract.
const CodeNoHeadTimestamp int64 = 162
