// Package response provides helpers for writing consistent JSON HTTP
// responses.
//
// Every handler in this application answers with JSON, and every body
// carries a human-readable "message" the frontend shows as is. Keeping the
// header, status and encoding steps here means a handler never writes a
// body in a shape the frontend does not expect.
//
// Failures caused by the database may add the driver's text under "error".
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the envelope used for bodies that carry nothing but a message
// and, for database failures, the underlying error.
//
//	{ "message": "Student not found" }
//	{ "message": "Failed to fetch students", "error": "no such table: students" }
//
// omitempty keeps "error" out of every body that has nothing to report.
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// WriteJSON writes data as JSON with the given status code.
//
// data may be a Response or any endpoint-specific struct; the encoder does
// not care.
//
// ORDER MATTERS: Header() → WriteHeader() → body.
// Headers set after WriteHeader are silently dropped.
// ─────────────────────────────────────────────────────────────────────────────
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// Message wraps a plain message.
func Message(msg string) Response {
	return Response{Message: msg}
}

// GeneralError pairs a message with err's text, for failures the client
// caused such as a malformed body.
func GeneralError(msg string, err error) Response {
	return Response{Message: msg, Error: err.Error()}
}

// ─────────────────────────────────────────────────────────────────────────────
// DBError pairs a message with the driver's own error text.
//
// The storage layer wraps every driver error with the operation and step
// that failed ("GetStudents: prepare: no such table: students"). That
// chain belongs in the logs. The client only ever sees the innermost
// error, which is the message the driver produced.
//
// When hide is set the driver text is left out entirely.
// ─────────────────────────────────────────────────────────────────────────────
func DBError(msg string, err error, hide bool) Response {
	resp := Response{Message: msg}
	if err != nil && !hide {
		resp.Error = rootCause(err).Error()
	}
	return resp
}

// rootCause follows err's wrap chain to its end. For errors joined with
// several %w verbs the last one is followed, since that is where the
// storage layer puts the driver error.
func rootCause(err error) error {
	for {
		switch e := err.(type) {
		case interface{ Unwrap() []error }:
			errs := e.Unwrap()
			if len(errs) == 0 {
				return err
			}
			err = errs[len(errs)-1]
		default:
			next := errors.Unwrap(err)
			if next == nil {
				return err
			}
			err = next
		}
	}
}

// DescribeValidation renders validator failures as one sentence, for logs.
//
//	field Department is required, field FatherName is required
func DescribeValidation(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", e.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return strings.Join(msgs, ", ")
}
