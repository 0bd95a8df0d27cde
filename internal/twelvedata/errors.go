package twelvedata

import "fmt"

// HTTPError is a non-2xx response from the API.
type HTTPError struct {
	Method     string
	Endpoint   string
	StatusCode int
	// Body holds at most the first 2 KiB of the response.
	Body string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s -> %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *HTTPError) HTTPStatus() int { return e.StatusCode }
