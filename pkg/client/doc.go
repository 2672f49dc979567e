// Package client provides the SMTP client entry points.
//
// Client handles the plaintext phase of a session: dialing, the server
// greeting and the EHLO capability exchange. SecureClient builds on it
// and elevates the connection with STARTTLS according to its TLS
// policy, after which commands travel over the TLS-protected channel
// and the capabilities are re-read with a secure EHLO.
//
// Both clients record the conversation through a log.Logger and keep
// the most recent server response available for inspection.
package client
