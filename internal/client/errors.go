package client

import (
	"errors"
	"fmt"

	"github.com/sellbook/sellbook/internal/session"
	"github.com/sellbook/sellbook/internal/ticket"
)

// ErrorSource attributes a server-side failure to an input path.
type ErrorSource struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// RequestError is a non-success API response or a transport failure.
type RequestError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Sources []ErrorSource
	Err     error
}

func (e *RequestError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

func (e *RequestError) Unwrap() error { return e.Err }

// NotFoundError is a 404 for a record that no longer exists.
type NotFoundError struct {
	*RequestError
}

func (e *NotFoundError) Unwrap() error { return e.RequestError }

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Notice returns the text to show for err: the server's message when one
// was sent, otherwise fallback. Session failures carry their own notice.
func Notice(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var ae *session.AuthError
	if errors.As(err, &ae) && ae.Notice != "" {
		return ae.Notice
	}

	var ve *ticket.ValidationError
	if errors.As(err, &ve) && len(ve.Violations) > 0 {
		return ve.Violations[0].Message
	}

	var re *RequestError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}

	return fallback
}
