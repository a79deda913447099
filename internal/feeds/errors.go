package feeds

import "fmt"

// ErrorKind classifies the failure carried by a snapshot. The display layer
// only ever sees this flag, never a raw error.
type ErrorKind string

const (
	ErrorNone    ErrorKind = ""
	ErrorNetwork ErrorKind = "network"
	ErrorDecode  ErrorKind = "decode"
)

// NetworkError wraps a transport-level failure: timeout, connection refused,
// non-2xx status. Transient; the scheduler retries with backoff.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError wraps a malformed feed payload. Also transient; one bad
// payload does not imply the next fetch will fail.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode feed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
