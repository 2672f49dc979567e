package transport

// CommandChannel is the command surface shared by the plaintext and
// TLS-protected channels. Higher layers issue protocol commands through
// it without caring which phase the connection is in.
type CommandChannel interface {
	// SendCommand writes a command without waiting for a reply. A write
	// failure tears down the channel and surfaces errorCode.
	SendCommand(command string, errorCode Code) error

	// SendCommandWithFeedback writes a command and waits for the
	// server's reply within the timeout budget, returning the reply's
	// leading status code. Budget exhaustion tears down the channel and
	// surfaces timeoutCode.
	SendCommandWithFeedback(command string, errorCode, timeoutCode Code) (int, error)
}

// StatusSink receives the raw last server response observed by a
// channel. The client layer implements it to keep its reply memory
// current across both connection phases.
type StatusSink interface {
	SetLastServerResponse(response string)
}

var (
	_ CommandChannel = (*SecureChannel)(nil)
	_ CommandChannel = (*PlainChannel)(nil)
)
