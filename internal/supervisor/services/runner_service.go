// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package services

import (
	"context"
)

// ContextRunner is a component with a blocking, context-bound run loop:
// *websocket.Hub (RunWithContext) and *events.Bus (Run) through RunnerFunc.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerFunc adapts a plain run function to ContextRunner.
type RunnerFunc func(ctx context.Context) error

// RunWithContext calls f.
func (f RunnerFunc) RunWithContext(ctx context.Context) error {
	return f(ctx)
}

// RunnerService supervises a ContextRunner under a fixed name.
//
//	tree.AddMessagingService(services.NewRunnerService("websocket-hub", hub))
//	tree.AddMessagingService(services.NewRunnerService("event-bus", services.RunnerFunc(bus.Run)))
type RunnerService struct {
	runner ContextRunner
	name   string
}

// NewRunnerService wraps runner.
func NewRunnerService(name string, runner ContextRunner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	err := s.runner.RunWithContext(ctx)
	if err == nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *RunnerService) String() string {
	return s.name
}
