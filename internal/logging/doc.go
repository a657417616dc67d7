// Package logging provides structured logging for the mcpsel CLI built on
// log/slog.
//
// The default handler produces compact, colorized text output when writing to
// a terminal and plain text otherwise. A JSON handler is available for
// machine consumption, and MultiHandler fans records out to several handlers
// at once (used for simultaneous stderr + log-file output).
package logging
