package studio

import (
	"fmt"
	"net/http"
)

// NetworkError reports a transport failure talking to the service,
// including HTTP error statuses on read-only endpoints.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: api returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError reports a response body that could not be parsed.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RequestError reports a rejected POST /generate.
type RequestError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("generation request failed: %s", e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("generation request failed: %s", http.StatusText(e.StatusCode))
	case e.Err != nil:
		return fmt.Sprintf("generation request failed: %v", e.Err)
	default:
		return "generation request failed"
	}
}

func (e *RequestError) Unwrap() error { return e.Err }
