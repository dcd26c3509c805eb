// Package server provides the operational HTTP server of the retainer
// daemon.
//
// The server exposes the Prometheus metrics endpoint and the liveness
// and readiness probes on a single listener:
//
//	srv := server.NewFromConfig(&cfg.Telemetry, collector, checker)
//	go func() {
//	    if err := srv.Start(ctx); err != nil {
//	        slog.Error("telemetry server failed", "error", err)
//	    }
//	}()
//
// Start blocks until the context is cancelled and then shuts down
// gracefully. Signal handling belongs to the caller.
package server
