// Package health serves liveness and readiness probes for `retainer run`.
//
// Liveness only reports that the process is up. Readiness runs the
// registered component checks concurrently, each bounded by the check
// timeout, and answers 503 if any fails:
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("database", health.DatabaseCheck(store))
//	checker.RegisterCheck("blobs", health.DirectoryCheck(cfg.Blobs.Local.Root))
//	checker.RegisterCheck("scheduler", health.SchedulerCheck(sched.IsRunning))
//	health.Register(mux, checker, &cfg.Telemetry.Health)
package health
