// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/tomtom215/theset/internal/apperr"
	"github.com/tomtom215/theset/internal/cache"
	"github.com/tomtom215/theset/internal/logging"
	syncpkg "github.com/tomtom215/theset/internal/sync"
)

const (
	ticketmasterCacheTTL     = 300 * time.Second
	ticketmasterCacheControl = "public, max-age=300, stale-while-revalidate=60"
)

// TicketmasterProxy forwards GET /api/ticketmaster?endpoint=<path>&... to the
// Discovery API with the server-held key. Every query parameter except
// endpoint is passed through. Successful bodies are cached in-process;
// upstream errors are forwarded with their status and body untouched.
//
// @Summary Ticketmaster Discovery proxy
// @Tags Proxy
// @Produce json
// @Param endpoint query string true "Relative Discovery path, e.g. events.json"
// @Success 200 {object} object
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Router /ticketmaster [get]
func (h *Handler) TicketmasterProxy(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	endpoint := query.Get("endpoint")
	if endpoint == "" {
		writeError(w, r, apperr.Validation("Missing endpoint parameter"))
		return
	}
	query.Del("endpoint")

	key := cache.GenerateKey("ticketmaster", proxyCacheKey(endpoint, query))
	if cached, ok := h.proxyCache.Get(key); ok {
		if raw, ok := cached.(*syncpkg.RawResponse); ok {
			w.Header().Set("Cache-Control", ticketmasterCacheControl)
			w.Header().Set("X-Cache", "HIT")
			writeUpstream(w, raw.Status, raw.Body, raw.ContentType)
			return
		}
	}

	raw, err := h.ticketmaster.Raw(r.Context(), endpoint, query)
	if err != nil {
		if e, ok := apperr.As(err); ok && e.Body != nil {
			writeUpstream(w, e.HTTPStatus(), e.Body, e.ContentType)
			return
		}
		writeError(w, r, err)
		return
	}

	if !raw.OK() {
		logging.Ctx(r.Context()).Warn().
			Int("status", raw.Status).
			Str("endpoint", sanitizeLogValue(endpoint)).
			Msg("Ticketmaster returned an error response")
		writeUpstream(w, raw.Status, raw.Body, raw.ContentType)
		return
	}

	h.proxyCache.Set(key, raw)
	w.Header().Set("Cache-Control", ticketmasterCacheControl)
	w.Header().Set("X-Cache", "MISS")
	writeUpstream(w, raw.Status, raw.Body, raw.ContentType)
}

// proxyCacheKey is stable for equal parameter sets; Encode sorts by key.
func proxyCacheKey(endpoint string, query url.Values) string {
	return endpoint + "?" + query.Encode()
}
