package wire

import "strings"

// CRLF is the SMTP line terminator.
const CRLF = "\r\n"

// Line returns the command with exactly one trailing CRLF.
func Line(command string) string {
	return strings.TrimRight(command, "\r\n") + CRLF
}

// EHLO builds the EHLO command for the given local (client) name.
func EHLO(localName string) string {
	if localName == "" {
		localName = "localhost"
	}
	return Line("EHLO " + localName)
}
