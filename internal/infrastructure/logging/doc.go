// Package logging wraps log/slog for ApplianceLink.
//
// All packages log through the same key-value style:
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("appliance registered", "ha_id", haID, "type", "Oven")
//
// Configuration comes from the logging section of config.yaml (level,
// format, output). Components that only need a subset of the methods
// declare their own small Logger interface, which *logging.Logger and
// *slog.Logger both satisfy.
//
// Cloud tokens and broker credentials must never appear in log fields.
package logging
