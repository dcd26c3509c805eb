// Package logging builds the process logger on top of log/slog.
//
// Logs are written as JSON or text. Attributes whose key looks like a
// credential (password, secret, token, dsn) are masked, and postgres DSNs
// embedded in error strings have their password replaced. Pipeline fields
// stored on a context with WithRunID, WithPipeline and WithJob are added
// to every record logged through the *Context methods:
//
//	logger, err := logging.Setup(logging.FromConfig(cfg.Telemetry.Logging, os.Stderr))
//	if err != nil {
//	    return err
//	}
//	ctx = logging.WithRunID(ctx, runID)
//	logger.InfoContext(ctx, "step committed", "rows", 12)
package logging
