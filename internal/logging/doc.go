// Package logging wraps Zap for reflectd.
//
// Loggers carry a custom Trace level, an optional OpenTelemetry output and
// context correlation (trace_id, user.id, request.id) on every entry.
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, nil, logging.WithPIIRedactor(r))
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithUserID(ctx, userID)
//	logger.Info(ctx, "candidates generated", zap.Int("count", n))
//
// String values pass through two redaction layers before they reach the
// encoder: sensitive field names are masked outright, and values are run
// through the PII redactor so personal data in free text (conversation
// excerpts, event titles) never lands in a log line. Errors and above are
// never sampled.
//
// Tests use TestLogger for assertions against observed entries.
package logging
