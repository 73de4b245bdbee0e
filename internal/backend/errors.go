package backend

import "fmt"

// NetworkError means the backend could not be reached, the circuit breaker is
// open, or a successful response could not be decoded.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("backend: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response.
type ServerError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("backend: %s: status %d", e.Op, e.StatusCode)
}
