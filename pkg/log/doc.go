// Package log provides the structured communication log for the SMTP
// client.
//
// Every command sent, reply received and handshake step performed on a
// connection is captured as an Event and handed to a Logger. The log is
// purely observational: nothing in the client's control flow depends on
// it. It is separate from operational logging (slog) — the event stream
// is a complete machine-readable trace of one SMTP conversation.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	logger := log.NewSlogAdapter(slog.Default())
//
//	// For diagnostics capture: write to binary file
//	logger, _ := log.NewFileLogger("session.clog")
//
//	// Both: use MultiLogger
//	logger := log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Direction Tags
//
// Events carry a direction tag distinguishing client-sent commands,
// server replies, and steps involving both peers (the TLS handshake).
//
// # File Format
//
// Log files use CBOR encoding with integer keys. The smtp-log CLI tool
// provides viewing and filtering.
package log
