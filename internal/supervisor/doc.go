// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

/*
Package supervisor runs the server's long-running services under a suture v4
supervisor tree.

	RootSupervisor ("theset")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── RunnerService "event-bus"       (watermill router)
	│   └── RunnerService "websocket-hub"
	├── WorkerSupervisor ("worker-layer")
	│   └── QueueWorkerService             (if sync.worker_enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Each layer counts failures on its own, so a worker in backoff leaves the API
serving. Supervisor events are logged through sutureslog on an slog logger
backed by zerolog (logging.NewSlogLogger).

Usage from main:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}
	tree.AddMessagingService(services.NewRunnerService("event-bus", services.RunnerFunc(bus.Run)))
	tree.AddMessagingService(services.NewRunnerService("websocket-hub", hub))
	tree.AddAPIService(services.NewHTTPServerService(server, "http-server", 10*time.Second))
	return tree.Serve(ctx)
*/
package supervisor
