// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

/*
Package cache provides a thread-safe in-memory cache with TTL expiration.

It backs the Ticketmaster proxy: successful upstream bodies are kept for the
same 300 seconds the proxy advertises in Cache-Control, so repeated browser
requests for the same endpoint and parameters do not spend API quota.

# Overview

  - Thread-safe concurrent access (sync.RWMutex)
  - Per-entry TTL with lazy expiration on Get and a background sweep
  - Optional capacity; the entry closest to expiry is evicted first
  - Hit, miss and size metrics labelled by cache name

# Usage

	c := cache.New(5*time.Minute, cache.Options{Name: "ticketmaster", Capacity: 2000})
	defer c.Close()

	key := cache.GenerateKey("events.json", params)
	if v, ok := c.Get(key); ok {
	    return v.([]byte)
	}
	c.Set(key, body)

GenerateKey hashes the JSON encoding of its parameters, so maps produce the
same key regardless of insertion order.
*/
package cache
