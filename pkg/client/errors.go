package client

import (
	"errors"
	"fmt"
)

// ErrorClass represents a classification of client errors.
type ErrorClass string

const (
	// ErrorClassNetwork represents transport failures (DNS, refused, timeout).
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassParse represents bodies that could not be interpreted.
	ErrorClassParse ErrorClass = "parse"

	// ErrorClassNotFound represents server errors carrying code 404.
	ErrorClassNotFound ErrorClass = "not_found"

	// ErrorClassServer represents any other server-reported error.
	ErrorClassServer ErrorClass = "server"
)

// ErrMissingBaseURL is returned by NewServer when no base URL is configured.
var ErrMissingBaseURL = errors.New("base url is required")

// ErrorResponse is the structured error payload sent by the Clockify API.
type ErrorResponse struct {
	Code    int
	Message string
}

// ConnectionError is returned when the server could not be reached or the
// response could not be read.
type ConnectionError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("clockify connection error (%s %s): %v", e.Method, e.URL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ParseError is returned when a response body is not valid JSON or an error
// body lacks the fields needed to describe the error.
type ParseError struct {
	Reason string
	Body   string
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("clockify parse error: %s: %v (body %q)", e.Reason, e.Err, truncateBody(e.Body))
	}
	return fmt.Sprintf("clockify parse error: %s (body %q)", e.Reason, truncateBody(e.Body))
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ServerError is an error the API reported in a well-formed error body.
type ServerError struct {
	StatusCode int
	Response   ErrorResponse
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("clockify server error (status %d, code %d): %s",
		e.StatusCode, e.Response.Code, e.Response.Message)
}

// NotFoundError is a ServerError whose payload carries code 404. Callers use
// it to tell "nothing there" apart from real failures.
type NotFoundError struct {
	ServerError
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("clockify not found (status %d): %s", e.StatusCode, e.Response.Message)
}

// Unwrap exposes the embedded ServerError so errors.As(err, **ServerError)
// matches not-found errors too.
func (e *NotFoundError) Unwrap() error {
	return &e.ServerError
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Classify maps an error onto an ErrorClass for logging and metrics.
// Unknown errors yield an empty class.
func Classify(err error) ErrorClass {
	var (
		connErr  *ConnectionError
		parseErr *ParseError
		nfErr    *NotFoundError
		srvErr   *ServerError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &connErr):
		return ErrorClassNetwork
	case errors.As(err, &parseErr):
		return ErrorClassParse
	case errors.As(err, &nfErr):
		return ErrorClassNotFound
	case errors.As(err, &srvErr):
		return ErrorClassServer
	default:
		return ""
	}
}

func truncateBody(body string) string {
	const max = 200
	if len(body) <= max {
		return body
	}
	return body[:max] + "..."
}
