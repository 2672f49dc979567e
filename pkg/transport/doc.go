// Package transport implements the secure-channel upgrade layer of the
// SMTP client: it elevates an established plaintext command connection
// to a TLS-protected session via STARTTLS and carries the command
// protocol over the encrypted channel afterwards.
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│   SMTP command lines (CRLF)    │
//	├────────────────────────────────┤
//	│       TLS (post-STARTTLS)      │
//	├────────────────────────────────┤
//	│             TCP                │
//	└────────────────────────────────┘
//
// # Upgrade Sequence
//
// SecureChannel.Upgrade drives a linear state machine over the existing
// socket: TLS context creation, session binding, trust-anchor
// provisioning, the STARTTLS command exchange, the TLS handshake, and
// finally the peer-certificate presence and chain-verification checks.
// Every failing stage runs the full resource teardown before its error
// code is returned; no partially-initialized secure state is ever left
// reachable.
//
// # Command Channels
//
// The CommandChannel interface is the capability surface for issuing
// commands during one phase of the connection. PlainChannel serves the
// pre-STARTTLS phase, SecureChannel the encrypted phase; the client
// swaps implementations when the upgrade completes. Reads follow a
// whole-second timeout budget: a reply arriving at any point before the
// budget expires is accepted, and expiry tears down all resources.
//
// Channels are not safe for concurrent use; exactly one command is in
// flight at a time per connection.
package transport
