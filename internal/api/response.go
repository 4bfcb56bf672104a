// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package api

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/theset/internal/apperr"
	"github.com/tomtom215/theset/internal/logging"
)

// Response is the envelope of every JSON response except proxied ones.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta carries optional response metadata.
type Meta struct {
	RequestID string `json:"requestId,omitempty"`

	// Stale is set when a refresh-on-read failed and cached data is served.
	Stale bool `json:"stale,omitempty"`

	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes a page of a list response.
type Pagination struct {
	Count   int  `json:"count"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData writes {success:true, data, meta}.
func respondData(w http.ResponseWriter, r *http.Request, status int, data interface{}, meta *Meta) {
	if meta == nil {
		meta = &Meta{}
	}
	meta.RequestID = logging.RequestIDFromContext(r.Context())
	writeJSON(w, status, &Response{Success: true, Data: data, Meta: meta})
}

// respondOK writes a 200 success response.
func respondOK(w http.ResponseWriter, r *http.Request, data interface{}) {
	respondData(w, r, http.StatusOK, data, nil)
}

// writeError converts err to its status and JSON body and logs it. Server
// errors are logged at error level with the cause, client errors at debug.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	kind := apperr.KindOf(err)

	event := logging.Ctx(r.Context()).Debug()
	if status >= http.StatusInternalServerError {
		event = logging.Ctx(r.Context()).Error()
	}
	event.
		Err(err).
		Str("method", r.Method).
		Str("path", sanitizeLogValue(r.URL.Path)).
		Int("status", status).
		Str("kind", kind.String()).
		Msg("API error")

	writeJSON(w, status, &Response{
		Success: false,
		Error:   apperr.PublicMessage(err),
		Code:    kind.Code(),
	})
}

// writeUpstream forwards an upstream response body with its status.
func writeUpstream(w http.ResponseWriter, status int, body []byte, contentType string) {
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.Debug().Err(err).Msg("Failed to write upstream response")
	}
}

// sanitizeLogValue escapes control characters so request data cannot forge log lines.
func sanitizeLogValue(s string) string {
	var result []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == 0x7F {
			if result == nil {
				result = append(make([]byte, 0, len(s)+8), s[:i]...)
			}
			result = append(result, '\\', 'x', hexDigit(c>>4), hexDigit(c&0x0F))
			continue
		}
		if result != nil {
			result = append(result, c)
		}
	}
	if result == nil {
		return s
	}
	return string(result)
}

func hexDigit(b byte) byte {
	const digits = "0123456789abcdef"
	return digits[b]
}

// pageParams parses limit and offset query parameters.
func pageParams(r *http.Request) (limit, offset int, err error) {
	limit, err = intParam(r, "limit", defaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	if limit < 1 || limit > maxPageSize {
		return 0, 0, apperr.Validationf("limit must be between 1 and %d", maxPageSize)
	}
	offset, err = intParam(r, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	if offset < 0 {
		return 0, 0, apperr.Validation("offset must not be negative")
	}
	return limit, offset, nil
}

func intParam(r *http.Request, key string, defaultValue int) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperr.Validationf("%s must be an integer", key)
	}
	return n, nil
}

// paginate builds page metadata. Lists are fetched with limit+1 rows so
// hasMore is known without a count query; paginate trims the extra row.
func paginate[T any](rows []T, limit, offset int) ([]T, *Pagination) {
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	return rows, &Pagination{Count: len(rows), Limit: limit, Offset: offset, HasMore: hasMore}
}
