package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind says where a request failed.
type Kind int

const (
	KindTransport Kind = iota + 1 // timeout, refused connection, cancelled context
	KindClient                    // 4xx: validation or auth failure
	KindServer                    // 5xx
	KindShape                     // response body did not match the expected schema
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	case KindShape:
		return "shape"
	}
	return "unknown"
}

// Error is the uniform failure every resource call returns.
type Error struct {
	Kind    Kind   `json:"kind"`
	Status  int    `json:"status,omitempty"`
	Op      string `json:"op,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the status sentinels below, so errors.Is(err, ErrUnauthorized) works
// for any 401 regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Status != 0 {
		return e.Status == t.Status
	}
	return t.Kind != 0 && e.Kind == t.Kind && t.Message == ""
}

func New(kind Kind, status int, message string, err error) *Error {
	return &Error{Kind: kind, Status: status, Message: message, Err: err}
}

var (
	ErrBadRequest   = New(KindClient, http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized = New(KindClient, http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden    = New(KindClient, http.StatusForbidden, "Forbidden", nil)
	ErrNotFound     = New(KindClient, http.StatusNotFound, "Not found", nil)
	ErrConflict     = New(KindClient, http.StatusConflict, "Conflict", nil)

	ErrTransport = &Error{Kind: KindTransport}
	ErrServer    = &Error{Kind: KindServer}
	ErrShape     = &Error{Kind: KindShape}
)

// GenericMessage is shown when the server gave no usable message.
const GenericMessage = "Something went wrong. Please try again."

func kindForStatus(status int) Kind {
	if status >= 500 {
		return KindServer
	}
	return KindClient
}

// MessageOf extracts the user-facing message from any error.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return GenericMessage
}

// IsTransport reports whether the request never produced a server response.
func IsTransport(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindTransport
}
