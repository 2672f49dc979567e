package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/google/uuid"

	"github.com/jeremydumais/smtpclient-go/pkg/wire"
)

// PlainChannel carries commands over the plaintext connection phase,
// before (or instead of) the TLS upgrade. It owns the socket until the
// socket is handed to a SecureChannel for upgrading.
//
// A PlainChannel is not safe for concurrent use.
type PlainChannel struct {
	config Config
	connID string
	conn   net.Conn
}

// NewPlainChannel creates an unconnected plaintext channel.
func NewPlainChannel(config Config) *PlainChannel {
	config.applyDefaults()
	connID := config.ConnectionID
	if connID == "" {
		connID = uuid.NewString()
	}
	return &PlainChannel{
		config: config,
		connID: connID,
	}
}

// ConnectionID returns the channel's log correlation ID.
func (c *PlainChannel) ConnectionID() string { return c.connID }

// Connected reports whether the channel holds a live socket.
func (c *PlainChannel) Connected() bool { return c.conn != nil }

// Conn exposes the underlying socket so the secure phase can take it
// over. The plaintext channel stays the owner until Release is called.
func (c *PlainChannel) Conn() net.Conn { return c.conn }

// Release hands the socket to the caller and empties the channel, so a
// later Cleanup releases nothing the new owner holds.
func (c *PlainChannel) Release() net.Conn {
	conn := c.conn
	c.conn = nil
	return conn
}

// Connect dials the configured endpoint and reads the server greeting.
func (c *PlainChannel) Connect(ctx context.Context) (int, error) {
	if c.conn != nil {
		return 0, fmt.Errorf("already connected to %s", c.config.Endpoint)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.config.Endpoint.String())
	if err != nil {
		return 0, &ChannelError{Code: CodeConnect, Err: err}
	}
	c.conn = conn
	c.emitter().state("", "connected", "")

	raw, err := awaitResponse(c.conn, c.config.TimeoutSeconds)
	if err != nil {
		c.Cleanup()
		return 0, &ChannelError{Code: CodeConnect, Err: err}
	}
	greeting := wire.TrimLineTerminator(raw)
	if c.config.Sink != nil {
		c.config.Sink.SetLastServerResponse(greeting)
	}
	code, codeErr := wire.ExtractReturnCode(greeting)
	c.emitter().response(code, greeting)
	if codeErr != nil {
		return 0, &ChannelError{Code: CodeMalformedReply, Err: codeErr}
	}
	return code, nil
}

// SendCommand writes a command over the plaintext socket. A failed
// write tears down the channel and returns the caller-supplied code.
func (c *PlainChannel) SendCommand(command string, errorCode Code) error {
	if c.conn == nil {
		return &ChannelError{Code: errorCode, Err: ErrNotConnected}
	}
	c.emitter().command(wire.TrimLineTerminator(command))
	if err := writeCommand(c.conn, command); err != nil {
		c.Cleanup()
		return &ChannelError{Code: errorCode, Err: err}
	}
	return nil
}

// SendCommandWithFeedback writes a command over the plaintext socket
// and waits for the server's reply within the timeout budget.
func (c *PlainChannel) SendCommandWithFeedback(command string, errorCode, timeoutCode Code) (int, error) {
	if c.conn == nil {
		return 0, &ChannelError{Code: errorCode, Err: ErrNotConnected}
	}

	c.emitter().command(wire.TrimLineTerminator(command))
	if err := writeCommand(c.conn, command); err != nil {
		c.Cleanup()
		return 0, &ChannelError{Code: errorCode, Err: err}
	}

	raw, err := awaitResponse(c.conn, c.config.TimeoutSeconds)
	if err != nil {
		c.Cleanup()
		return 0, &ChannelError{Code: timeoutCode, Err: err}
	}

	response := wire.TrimLineTerminator(raw)
	if c.config.Sink != nil {
		c.config.Sink.SetLastServerResponse(response)
	}
	code, parseErr := wire.ExtractReturnCode(response)
	c.emitter().response(code, response)
	if parseErr != nil {
		return 0, &ChannelError{Code: CodeMalformedReply, Err: parseErr}
	}
	return code, nil
}

// Cleanup closes the socket if still owned. Safe to call repeatedly.
func (c *PlainChannel) Cleanup() {
	if c.conn != nil {
		if tc, ok := c.conn.(*net.TCPConn); ok {
			_ = tc.CloseWrite()
		}
		_ = c.conn.Close()
		c.conn = nil
		c.emitter().state("connected", "closed", "")
	}
}

func (c *PlainChannel) emitter() eventEmitter {
	return eventEmitter{
		logger: c.config.Logger,
		connID: c.connID,
		remote: c.config.Endpoint.String(),
		secure: false,
	}
}
