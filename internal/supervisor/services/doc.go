// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

/*
Package services adapts the server's long-running components to suture.Service.

  - HTTPServerService: *http.Server with graceful shutdown
  - RunnerService: anything with a RunWithContext loop, such as the WebSocket
    hub, or a plain run function through RunnerFunc, such as the event bus
  - QueueWorkerService: ticks sync.Worker.ProcessBatch and Cleanup

Every Serve returns ctx.Err() on a normal shutdown so the supervisor does not
count it as a failure.
*/
package services
