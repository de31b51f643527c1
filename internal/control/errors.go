package control

import (
	"fmt"
	"strings"

	"nzbharness/internal/faults"
)

// TransportError reports a failure to reach the daemon or a non-RPC HTTP reply.
type TransportError struct {
	Method     string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("control %s: http %d: %s", e.Method, e.StatusCode, strings.TrimSpace(e.Body))
	}
	return fmt.Sprintf("control %s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{faults.ErrTransport}
	}
	return []error{faults.ErrTransport, e.Err}
}

// RPCError is an error the daemon reported in the response envelope.
type RPCError struct {
	Method  string
	Name    string
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("control %s: %s (%d): %s", e.Method, e.Name, e.Code, e.Message)
}
