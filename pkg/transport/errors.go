package transport

import (
	"errors"
	"fmt"
)

// Code enumerates the failure modes of the secure-channel core. Codes
// are negative so they can never collide with SMTP reply codes; CodeOK
// is zero. Callers supply their own codes (in the same space) for the
// send and timeout failures of command calls.
type Code int

const (
	// CodeOK indicates success.
	CodeOK Code = 0

	// CodeInitTLSConfig indicates the TLS context could not be created.
	CodeInitTLSConfig Code = -1

	// CodeSessionNew indicates the TLS session object could not be
	// created or bound to the socket.
	CodeSessionNew Code = -2

	// CodeStoreOpen indicates the platform certificate store could not
	// be opened.
	CodeStoreOpen Code = -3

	// CodeDefaultTrustPaths indicates the default trust paths could not
	// be configured, or trust provisioning produced no anchors.
	CodeDefaultTrustPaths Code = -4

	// CodeConnect indicates the transport-level connect (the STARTTLS
	// command exchange) failed.
	CodeConnect Code = -5

	// CodeHandshake indicates the TLS handshake failed.
	CodeHandshake Code = -6

	// CodeNoPeerCertificate indicates the server presented no
	// certificate during the negotiation.
	CodeNoPeerCertificate Code = -7

	// CodeVerifyResult indicates certificate chain verification failed.
	CodeVerifyResult Code = -8

	// CodeMalformedReply indicates a server reply carried no parseable
	// status code.
	CodeMalformedReply Code = -9
)

// String returns the code name.
func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeInitTLSConfig:
		return "INITSSLCTX_ERROR"
	case CodeSessionNew:
		return "NEWSSLCONNECT_ERROR"
	case CodeStoreOpen:
		return "CERTSTORE_OPEN_ERROR"
	case CodeDefaultTrustPaths:
		return "SET_DEFAULT_VERIFY_PATHS_ERROR"
	case CodeConnect:
		return "CONNECT_ERROR"
	case CodeHandshake:
		return "HANDSHAKE_ERROR"
	case CodeNoPeerCertificate:
		return "GET_CERTIFICATE_ERROR"
	case CodeVerifyResult:
		return "VERIFY_RESULT_ERROR"
	case CodeMalformedReply:
		return "MALFORMED_REPLY_ERROR"
	default:
		return fmt.Sprintf("CODE(%d)", int(c))
	}
}

// Channel state errors.
var (
	// ErrNotEstablished indicates a command was issued before a
	// successful handshake.
	ErrNotEstablished = errors.New("secure session not established")

	// ErrNotConnected indicates no socket is attached.
	ErrNotConnected = errors.New("not connected")

	// errBudgetExhausted marks a read that consumed the whole timeout
	// budget without receiving data.
	errBudgetExhausted = errors.New("timeout budget exhausted")
)

// ChannelError couples a Code with the captured underlying library
// error, preserving it for diagnostics. Every operation of the secure
// core reports failure through this type.
type ChannelError struct {
	// Code is the enumerated failure kind.
	Code Code

	// Err is the underlying library error, if one was captured.
	Err error
}

// Error returns the code name, with the underlying error appended when
// one was captured.
func (e *ChannelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code.String()
}

// Unwrap returns the captured underlying error.
func (e *ChannelError) Unwrap() error { return e.Err }

// CodeOf extracts the channel code from err. It returns CodeOK for nil
// and for errors that did not originate in this package.
func CodeOf(err error) Code {
	var ce *ChannelError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeOK
}
