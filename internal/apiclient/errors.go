package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed call along the portal's error taxonomy.
type Kind int

const (
	KindTransport    Kind = iota + 1 // request never produced a response
	KindUnauthorized                 // 401/403: session problem, re-authenticate
	KindNotFound                     // 404
	KindConflict                     // 409, e.g. slot already booked
	KindInvalid                      // 400/422 rejected input
	KindServer                       // 5xx
	KindDecode                       // 2xx with an unreadable body
	KindUnexpected                   // any other status
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalid:
		return "invalid"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	}
	return "unexpected"
}

// Error describes a failed collaborator call.  Code holds a structured
// error ({"error": "..."}), Message the generic text ({"message": "..."}
// or a plain-text body) and Err the transport or decode cause.
type Error struct {
	Op      string
	Status  int
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("apiclient: ")
	b.WriteString(e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Code != "" {
		b.WriteString(": ")
		b.WriteString(e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage picks the text shown to the user: structured server error,
// then server message, then the transport error, then fallback.
func (e *Error) UserMessage(fallback string) string {
	switch {
	case e.Code != "":
		return e.Code
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return fallback
}

// UserMessage applies (*Error).UserMessage to any error.  Non-API errors
// contribute their own text.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage(fallback)
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindInvalid
	case status >= 500:
		return KindServer
	}
	return KindUnexpected
}

// statusError builds an *Error from a non-2xx response body.  JSON objects
// contribute "error" and "message"; a JSON string or plain text becomes the
// message.
func statusError(op string, status int, body []byte) *Error {
	e := &Error{Op: op, Status: status, Kind: kindForStatus(status)}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return e
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err == nil {
		e.Code = textField(obj["error"])
		e.Message = textField(obj["message"])
		// Spring-style bodies put the reason phrase in "error".
		if strings.EqualFold(e.Code, http.StatusText(status)) {
			e.Code = ""
		}
		return e
	}
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		e.Message = s
		return e
	}
	if len(trimmed) > 300 {
		trimmed = trimmed[:300]
	}
	e.Message = trimmed
	return e
}

// textField reads a string, or the "message" of a nested object.
func textField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}
