// Package logging provides structured logging built on log/slog.
//
// Every component receives a *Logger (usually via With to tag the
// component name) rather than using a package-level logger, keeping
// log configuration in one place: config.yaml's logging section.
package logging
