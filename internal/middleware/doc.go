// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

/*
Package middleware provides the infrastructure HTTP middleware shared by every
route: request ids, Prometheus instrumentation, latency tracking and security
headers.

All middleware use the func(http.Handler) http.Handler shape so they plug
directly into a chi router:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.Server.PublicURL))
	r.Use(middleware.PrometheusMetrics)
	r.Use(perf.Middleware)

Endpoint labels come from the matched chi route pattern (for example
"/api/shows/{id}") so metric cardinality stays bounded regardless of the ids
seen in request paths. Requests that match no route are labelled "unmatched".

Request IDs:

An incoming X-Request-ID header is honoured when it is short and printable,
otherwise a UUID is generated. The id is echoed in the response header and
stored in the logging context together with a fresh correlation id, so every
log line written through logging.Ctx(r.Context()) carries it.

Performance Monitor:

PerformanceMonitor keeps a sliding window of recent request latencies and
reports per-route percentiles. The admin API exposes these statistics.
*/
package middleware
