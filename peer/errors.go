package peer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoNode is returned when a call is attempted before a node is selected.
	ErrNoNode = errors.New("peer: no node selected")
	// ErrNotFound matches peer responses reporting a missing entity.
	ErrNotFound = errors.New("peer: not found")
)

// APIError is a response the peer answered with success=false.
type APIError struct {
	Operation string
	Message   string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Operation == "" {
		return fmt.Sprintf("peer error: %s", e.Message)
	}
	return fmt.Sprintf("peer %s: %s", e.Operation, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match "... not found" messages.
func (e *APIError) Is(target error) bool {
	if e == nil || target != ErrNotFound {
		return false
	}
	return strings.Contains(strings.ToLower(e.Message), "not found")
}

// StatusError reports a non-2xx HTTP status from the peer.
type StatusError struct {
	Operation  string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("peer %s failed with status %s", e.Operation, e.Status)
}
