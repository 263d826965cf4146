package api

import "fmt"

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError covers a non-2xx status and a 2xx body that is not valid JSON.
// Err is set in the second case.
type ServerError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ServerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s returned an unreadable body (http %d): %v", e.Endpoint, e.StatusCode, e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("%s returned http %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s returned http %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *ServerError) Unwrap() error { return e.Err }
