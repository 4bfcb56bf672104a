// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

/*
Package metrics declares the Prometheus collectors for TheSet.

All collectors are registered on the default registry through promauto and
are served at /metrics by promhttp. Every metric name is prefixed theset_.

Covered areas:
  - API requests (count, latency, in flight, rate limit rejections)
  - Store queries and write-conflict retries
  - Sync operations per entity type and source, reconciled rows
  - Task queue depth and outcomes
  - Votes cast and removed, rejections by reason
  - Third-party requests, retries and circuit breaker state
  - Upstream response cache, websocket connections, event bus

Call sites use the Record* helpers rather than touching collectors directly,
except where a label set is only known at the call site.
*/
package metrics
