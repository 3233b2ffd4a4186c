// Package logging is the structured logging layer for Lumina Core.
//
// It is a thin wrapper over log/slog. The domain packages never import
// it; each declares its own narrow Logger interface (usually Debug/Warn
// or Debug/Info/Warn/Error) that *logging.Logger satisfies through its
// embedded *slog.Logger, so tests can drop in their own fakes.
//
// Every entry carries service and version fields; subsystems scope their
// entries with Component:
//
//	log := logging.New(cfg.Logging, version)
//	log.Component("mqtt").Info("connected", "broker", addr)
//
// Configuration lives in the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log secrets, tokens, passwords, or API keys.
package logging
