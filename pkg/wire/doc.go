// Package wire implements the textual SMTP wire conventions used by the
// client: CRLF-terminated command lines, three-digit reply codes with
// their RFC 5321 classes, and EHLO capability parsing (including the
// AUTH mechanism list the client tracks across the plaintext and secure
// phases of a connection).
//
// The package is deliberately free of any I/O; channels in
// pkg/transport move the bytes, this package interprets them.
package wire
