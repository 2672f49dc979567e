package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedReply indicates a server reply whose leading token is not
// a numeric SMTP status code.
var ErrMalformedReply = errors.New("malformed server reply")

// Reply code classes (RFC 5321 §4.2.1).
const (
	ClassPositiveCompletion   = 2 // 2xx
	ClassPositiveIntermediate = 3 // 3xx
	ClassTransientNegative    = 4 // 4xx
	ClassPermanentNegative    = 5 // 5xx
)

// Reply codes the client core depends on.
const (
	// CodeServiceReady confirms the server is ready, both for the
	// initial greeting and for a STARTTLS request (RFC 3207 §4).
	CodeServiceReady = 220

	// CodeActionOK is the generic success reply, and the success
	// sentinel for EHLO.
	CodeActionOK = 250

	// CodeServiceClosing acknowledges QUIT.
	CodeServiceClosing = 221

	// CodeServiceNotAvailable indicates a transient service failure.
	CodeServiceNotAvailable = 421
)

// Class returns the reply class (first digit) of an SMTP reply code.
func Class(code int) int {
	return code / 100
}

// IsPositive reports whether the code is a 2xx or 3xx reply.
func IsPositive(code int) bool {
	c := Class(code)
	return c == ClassPositiveCompletion || c == ClassPositiveIntermediate
}

// ExtractReturnCode parses the leading numeric status code of a server
// reply line. The first whitespace-delimited token is interpreted as the
// code; the "250-" continuation form of multi-line replies is accepted.
// A non-numeric leading token yields ErrMalformedReply.
func ExtractReturnCode(response string) (int, error) {
	fields := strings.Fields(response)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty response", ErrMalformedReply)
	}

	token := fields[0]
	if i := strings.IndexByte(token, '-'); i >= 0 {
		token = token[:i]
	}

	code, err := strconv.Atoi(token)
	if err != nil || code < 100 || code > 599 {
		return 0, fmt.Errorf("%w: leading token %q", ErrMalformedReply, fields[0])
	}
	return code, nil
}

// TrimLineTerminator strips the trailing CRLF (or bare LF) from a raw
// server response, leaving everything before the terminator intact.
func TrimLineTerminator(raw string) string {
	raw = strings.TrimSuffix(raw, "\n")
	raw = strings.TrimSuffix(raw, "\r")
	return raw
}
