package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrNetwork matches every NetworkError.
	ErrNetwork = errors.New("remote: network error")
	// ErrRemoteFormat matches every RemoteFormatError.
	ErrRemoteFormat = errors.New("remote: unexpected page format")
	// ErrFormNotFound is wrapped by the RemoteFormatError returned when form#frm is missing.
	ErrFormNotFound = errors.New("remote: form not found")
)

// NetworkError is a timeout, connection failure or non-2xx response.
// It is recoverable: the caller retries on its next poll, never immediately.
type NetworkError struct {
	Op         string // "get" | "post" | "read"
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote %s %s: http %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("remote %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// Timeout reports whether the request ran past its deadline.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// RemoteFormatError means an element the protocol depends on is missing,
// usually because the site layout changed or an outage page was served.
type RemoteFormatError struct {
	What string
	Err  error
}

func (e *RemoteFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote format: %s: %v", e.What, e.Err)
	}
	return "remote format: " + e.What + " missing"
}

func (e *RemoteFormatError) Unwrap() error { return e.Err }

func (e *RemoteFormatError) Is(target error) bool { return target == ErrRemoteFormat }
