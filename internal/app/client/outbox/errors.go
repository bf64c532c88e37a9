package outbox

import (
	"errors"
	"fmt"
)

// ErrStorageUnavailable means the local durable store could not be
// opened. Offline capability is disabled for the session; callers
// must degrade to live-only operation instead of retrying.
var ErrStorageUnavailable = errors.New("offline storage unavailable")

// ConnectivityError marks a request that never reached the server.
// Connectivity failures are always retryable and never consume a
// retry count; they downgrade reachability instead.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("server unreachable: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// IsConnectivityError reports whether err wraps a transport-level
// delivery failure.
func IsConnectivityError(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

// APIError is a structured rejection from the server: the request was
// delivered but refused (validation, conflict, not found). Replays of
// the entry are retried on later cycles with a visible retry count.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed (%d)", e.Status)
}
