// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

// Package testinfra provides container-backed infrastructure for integration tests.
//
// It uses testcontainers-go to run a real Postgres server so the store can be
// exercised against the same engine that backs a Supabase deployment:
//
//	func TestStorePostgres(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//	    // connect with pg.DSN
//	}
//
// All files carry the integration build tag; run with:
//
//	go test -tags integration ./...
//
// Tests skip when Docker is unavailable.
package testinfra
