// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

// Package apperr defines the error taxonomy shared by the store, the sync
// pipeline and the HTTP API.
//
// Lower layers return *Error values (or wrap them with fmt.Errorf("...: %w"));
// the API boundary resolves them with As and writes the mapped status:
//
//	if err := svc.CastVote(ctx, songID, voter); err != nil {
//	    status := apperr.HTTPStatus(err) // 404, 400, 403 ...
//	}
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP mapping and metrics labels.
type Kind int

const (
	// KindInternal is any error that was not classified.
	KindInternal Kind = iota
	KindConfiguration
	KindValidation
	KindNotFound
	KindUpstream
	KindConflict
	KindSyncFailure
	KindForbidden
	KindUnauthorized
)

// String returns the snake_case kind name used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	case KindConflict:
		return "conflict"
	case KindSyncFailure:
		return "sync_failure"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Code returns the machine-readable code written in API error responses.
func (k Kind) Code() string {
	switch k {
	case KindConfiguration:
		return "CONFIGURATION_ERROR"
	case KindValidation:
		return "VALIDATION_FAILED"
	case KindNotFound:
		return "NOT_FOUND"
	case KindUpstream:
		return "EXTERNAL_SERVICE_FAILED"
	case KindConflict:
		return "CONFLICT"
	case KindSyncFailure:
		return "SYNC_FAILED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	default:
		return "INTERNAL_ERROR"
	}
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string

	// Status is the upstream HTTP status for KindUpstream. Zero means 500.
	Status int

	// Body is the raw upstream response body, forwarded verbatim by the proxy.
	Body []byte

	// ContentType of Body, when known.
	ContentType string

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the response status for this error.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		// Duplicate votes stay at 400 for existing clients.
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindUpstream:
		if e.Status >= 400 && e.Status <= 599 {
			return e.Status
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Is matches another *Error by kind and message, so sentinel values declared
// with New work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// New returns an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf returns an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// Configuration reports a missing or invalid server-side setting.
func Configuration(message string) *Error {
	return New(KindConfiguration, message)
}

// Validation reports bad client input.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Validationf reports bad client input with a formatted message.
func Validationf(format string, args ...interface{}) *Error {
	return Newf(KindValidation, format, args...)
}

// NotFound reports a missing resource.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Conflict reports a uniqueness violation such as a duplicate vote.
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Forbidden reports an authenticated caller that is not allowed.
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// Unauthorized reports missing or invalid credentials.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// Upstream reports a non-2xx response from a third-party API.
func Upstream(status int, message string, body []byte, contentType string) *Error {
	return &Error{Kind: KindUpstream, Status: status, Message: message, Body: body, ContentType: contentType}
}

// SyncFailure reports a failed sync invocation. cause may be nil.
func SyncFailure(message string, cause error) *Error {
	return &Error{Kind: KindSyncFailure, Message: message, Err: cause}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal when unclassified.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps any error to a response status. nil maps to 200.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if e, ok := As(err); ok {
		return e.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message safe to show a client. Unclassified
// errors are reduced to a generic message.
func PublicMessage(err error) string {
	e, ok := As(err)
	if !ok {
		return "Internal server error"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Kind == KindInternal {
		return "Internal server error"
	}
	return e.Error()
}
