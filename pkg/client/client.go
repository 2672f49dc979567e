package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jeremydumais/smtpclient-go/pkg/log"
	"github.com/jeremydumais/smtpclient-go/pkg/transport"
	"github.com/jeremydumais/smtpclient-go/pkg/wire"
)

// Client-level error codes. They share the transport code space and
// never collide with the secure-channel stage codes.
const (
	// CodeIdentification indicates the EHLO exchange failed.
	CodeIdentification transport.Code = -10

	// CodeIdentificationTimeout indicates the EHLO reply did not arrive
	// within the timeout budget.
	CodeIdentificationTimeout transport.Code = -11

	// CodeInitSecureClient indicates the secure-session setup or the
	// secure EHLO exchange failed.
	CodeInitSecureClient transport.Code = -20

	// CodeInitSecureClientTimeout indicates the secure EHLO reply did
	// not arrive within the timeout budget.
	CodeInitSecureClientTimeout transport.Code = -21
)

// Client is the plaintext SMTP client: it dials the server, consumes
// the greeting and runs the EHLO capability exchange. It implements
// transport.StatusSink so both connection phases feed its last-response
// memory.
//
// A Client is not safe for concurrent use.
type Client struct {
	serverName     string
	port           int
	localName      string
	timeoutSeconds int
	logger         log.Logger
	connID         string

	plain *transport.PlainChannel

	lastServerResponse string
	authOptions        *wire.AuthOptions
	extensions         wire.Extensions
}

// Option configures a Client.
type Option func(*Client)

// WithLocalName sets the client name announced in EHLO. Defaults to
// "localhost".
func WithLocalName(name string) Option {
	return func(c *Client) { c.localName = name }
}

// WithCommandTimeout sets the whole-second timeout budget for command
// replies.
func WithCommandTimeout(d time.Duration) Option {
	return func(c *Client) {
		if secs := int(d / time.Second); secs > 0 {
			c.timeoutSeconds = secs
		}
	}
}

// WithLogger sets the communication logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the given server. No connection is
// made until Connect.
func NewClient(serverName string, port int, opts ...Option) *Client {
	c := &Client{
		serverName:     serverName,
		port:           port,
		localName:      "localhost",
		timeoutSeconds: transport.DefaultTimeoutSeconds,
		logger:         log.NoopLogger{},
		connID:         uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ServerName returns the configured server name.
func (c *Client) ServerName() string { return c.serverName }

// Port returns the configured server port.
func (c *Client) Port() int { return c.port }

// LocalName returns the client name announced in EHLO.
func (c *Client) LocalName() string { return c.localName }

// CommandTimeout returns the per-command timeout budget.
func (c *Client) CommandTimeout() time.Duration {
	return time.Duration(c.timeoutSeconds) * time.Second
}

// ConnectionID returns the log correlation ID of this client's
// connection.
func (c *Client) ConnectionID() string { return c.connID }

// LastServerResponse returns the most recent raw server response,
// terminator stripped.
func (c *Client) LastServerResponse() string { return c.lastServerResponse }

// AuthOptions returns the authentication options the server advertised
// in its last EHLO reply, or nil before any exchange.
func (c *Client) AuthOptions() *wire.AuthOptions { return c.authOptions }

// Extensions returns the extensions the server advertised in its last
// EHLO reply.
func (c *Client) Extensions() wire.Extensions { return c.extensions }

// SetLastServerResponse records the raw last server response. Part of
// the transport.StatusSink contract.
func (c *Client) SetLastServerResponse(response string) {
	c.lastServerResponse = response
}

// AddCommunicationLogItem appends a free-form annotation to the
// communication log.
func (c *Client) AddCommunicationLogItem(note string, direction log.Direction) {
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    direction,
		Category:     log.CategoryState,
		RemoteAddr:   c.endpoint().String(),
		Note:         note,
	})
}

// Channel returns the command channel of the plaintext phase.
func (c *Client) Channel() transport.CommandChannel { return c.plain }

// Connected reports whether the plaintext connection is live.
func (c *Client) Connected() bool { return c.plain != nil && c.plain.Connected() }

func (c *Client) endpoint() transport.Endpoint {
	return transport.Endpoint{Host: c.serverName, Port: c.port}
}

func (c *Client) channelConfig() transport.Config {
	return transport.Config{
		Endpoint:       c.endpoint(),
		TimeoutSeconds: c.timeoutSeconds,
		Logger:         c.logger,
		Sink:           c,
		ConnectionID:   c.connID,
	}
}

// Connect dials the server, consumes the greeting and runs the EHLO
// capability exchange.
func (c *Client) Connect(ctx context.Context) error {
	if c.Connected() {
		return fmt.Errorf("already connected to %s", c.endpoint())
	}

	c.plain = transport.NewPlainChannel(c.channelConfig())
	code, err := c.plain.Connect(ctx)
	if err != nil {
		return err
	}
	if code != wire.CodeServiceReady {
		c.plain.Cleanup()
		return &transport.ChannelError{
			Code: transport.CodeConnect,
			Err:  fmt.Errorf("unexpected greeting %d: %s", code, c.lastServerResponse),
		}
	}

	return c.identify(c.plain)
}

// identify runs the EHLO exchange on the given channel and replaces the
// remembered capabilities from the reply.
func (c *Client) identify(ch transport.CommandChannel) error {
	code, err := ch.SendCommandWithFeedback(wire.EHLO(c.localName),
		CodeIdentification, CodeIdentificationTimeout)
	if err != nil {
		return err
	}
	if code != wire.CodeActionOK {
		return &transport.ChannelError{
			Code: CodeIdentification,
			Err:  fmt.Errorf("EHLO rejected with %d: %s", code, c.lastServerResponse),
		}
	}
	c.extensions = wire.ParseExtensions(c.lastServerResponse)
	c.authOptions = wire.ParseAuthOptions(c.lastServerResponse)
	return nil
}

// Quit sends QUIT and closes the connection. Errors from the farewell
// exchange are ignored; the connection is released either way.
func (c *Client) Quit() {
	if c.Connected() {
		_, _ = c.plain.SendCommandWithFeedback(wire.Line("QUIT"),
			CodeIdentification, CodeIdentificationTimeout)
	}
	c.Close()
}

// Close releases the connection. Safe to call repeatedly.
func (c *Client) Close() {
	if c.plain != nil {
		c.plain.Cleanup()
	}
}

var _ transport.StatusSink = (*Client)(nil)
