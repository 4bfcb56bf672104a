// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*RunnerService)(nil)

func TestRunnerService_Serve(t *testing.T) {
	t.Run("returns the context error", func(t *testing.T) {
		started := make(chan struct{})
		svc := NewRunnerService("event-bus", RunnerFunc(func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return nil
		}))

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()
		<-started
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Serve did not return")
		}
	})

	t.Run("propagates run errors", func(t *testing.T) {
		boom := errors.New("router closed")
		svc := NewRunnerService("event-bus", RunnerFunc(func(ctx context.Context) error { return boom }))
		if err := svc.Serve(context.Background()); !errors.Is(err, boom) {
			t.Errorf("Serve() = %v, want %v", err, boom)
		}
	})

	if got := NewRunnerService("websocket-hub", RunnerFunc(nil)).String(); got != "websocket-hub" {
		t.Errorf("String() = %q", got)
	}
}

func TestRunnerService_RestartedBySupervisor(t *testing.T) {
	runs := make(chan struct{}, 8)
	svc := NewRunnerService("flaky", RunnerFunc(func(ctx context.Context) error {
		runs <- struct{}{}
		if len(runs) < 2 {
			return errors.New("transient")
		}
		<-ctx.Done()
		return ctx.Err()
	}))

	sup := suture.New("test", suture.Spec{FailureBackoff: 10 * time.Millisecond, Timeout: time.Second})
	sup.Add(svc)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for n := 0; n < 2; n++ {
		select {
		case <-runs:
		case <-deadline:
			t.Fatal("service was not restarted")
		}
	}
	cancel()
	<-errCh
}
