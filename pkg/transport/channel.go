package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jeremydumais/smtpclient-go/pkg/cert"
	"github.com/jeremydumais/smtpclient-go/pkg/log"
	"github.com/jeremydumais/smtpclient-go/pkg/wire"
)

// DefaultTimeoutSeconds is the default per-command timeout budget.
const DefaultTimeoutSeconds = 5

// Endpoint identifies the server the channel talks to. It is immutable
// once the secure session starts.
type Endpoint struct {
	// Host is the server name, also used for certificate verification.
	Host string

	// Port is the server port.
	Port int
}

// String returns the "host:port" connection target.
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Config configures a channel.
type Config struct {
	// Endpoint is the connection target.
	Endpoint Endpoint

	// Trust provisions the trust anchors for the upgrade. Required for
	// SecureChannel.
	Trust cert.Provisioner

	// TimeoutSeconds is the whole-second timeout budget each command
	// call may spend waiting for a reply. Zero selects
	// DefaultTimeoutSeconds.
	TimeoutSeconds int

	// Logger receives communication log events. Nil disables logging.
	Logger log.Logger

	// Sink receives the last server response after each feedback call.
	// Optional.
	Sink StatusSink

	// ConnectionID correlates log events across the plaintext and
	// secure phases of one connection. Empty generates a fresh UUID.
	ConnectionID string
}

func (c *Config) applyDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Logger == nil {
		c.Logger = log.NoopLogger{}
	}
}

// SecureChannel owns the TLS resources of one upgraded connection: the
// TLS context (configuration), the TLS session bound to the socket, and
// the socket handle itself. All three are released exactly once by
// Cleanup, whatever path led there.
//
// A SecureChannel is not safe for concurrent use.
type SecureChannel struct {
	config Config
	connID string

	// Exclusively owned resources. nil is the "released" sentinel for
	// each of them.
	conn    net.Conn    // socket handle, shared with the plaintext phase
	tlsConf *tls.Config // TLS context, created lazily at STARTTLS time
	tlsConn *tls.Conn   // TLS session, 1:1 with socket and context

	recorder    *verifyRecorder
	established bool
	lastLibErr  error
}

// NewSecureChannel creates a channel for one upgrade attempt. The
// channel holds no resources until Upgrade is called.
func NewSecureChannel(config Config) *SecureChannel {
	config.applyDefaults()
	connID := config.ConnectionID
	if connID == "" {
		connID = uuid.NewString()
	}
	return &SecureChannel{
		config: config,
		connID: connID,
	}
}

// ConnectionID returns the channel's log correlation ID.
func (c *SecureChannel) ConnectionID() string { return c.connID }

// Established reports whether the handshake completed and the session
// is usable for commands.
func (c *SecureChannel) Established() bool { return c.established }

// LastLibraryError returns the most recently captured underlying
// library error, for diagnostics.
func (c *SecureChannel) LastLibraryError() error { return c.lastLibErr }

// ConnectionState returns the TLS connection state of the session.
// Only meaningful once Established reports true.
func (c *SecureChannel) ConnectionState() (tls.ConnectionState, error) {
	if c.tlsConn == nil {
		return tls.ConnectionState{}, ErrNotEstablished
	}
	return c.tlsConn.ConnectionState(), nil
}

// Upgrade elevates the established plaintext connection to a
// TLS-protected session. It drives the STARTTLS sequence as a linear
// state machine; every failing stage releases all resources before the
// stage's error code is returned.
func (c *SecureChannel) Upgrade(ctx context.Context, conn net.Conn) error {
	c.emitter().handshake("<Start TLS negotiation>", log.DirectionClient)

	// Init: create the TLS context.
	if c.config.Endpoint.Host == "" {
		return c.fail(CodeInitTLSConfig, errors.New("no endpoint host"))
	}
	rec := &verifyRecorder{host: c.config.Endpoint.Host}
	c.recorder = rec
	c.tlsConf = newClientTLSConfig(c.config.Endpoint.Host, rec)

	// Bind: create the TLS session scoped to the context and associate
	// it with the existing socket and the "host:port" target.
	if conn == nil {
		c.Cleanup()
		return c.fail(CodeSessionNew, ErrNotConnected)
	}
	c.conn = conn
	c.tlsConn = tls.Client(conn, c.tlsConf)

	// Trust: populate the trust-anchor set. The handshake is refused
	// when provisioning yields nothing.
	if c.config.Trust == nil {
		c.Cleanup()
		return c.fail(CodeDefaultTrustPaths, cert.ErrNoAnchors)
	}
	anchors, err := c.config.Trust.Anchors()
	if err != nil {
		c.Cleanup()
		return c.fail(trustCode(err), err)
	}
	if anchors == nil || anchors.Equal(x509.NewCertPool()) {
		c.Cleanup()
		return c.fail(CodeDefaultTrustPaths, cert.ErrNoAnchors)
	}
	c.tlsConf.RootCAs = anchors
	rec.anchors = anchors

	// Advisory pre-handshake verification check. No peer certificate
	// has been exchanged yet, so a non-OK result here is inherently
	// inconclusive: warn and continue.
	if preErr := rec.verifyResult(); preErr != nil {
		c.emitter().handshake(
			fmt.Sprintf("##### Certificate verification error (%v) but continuing...", preErr),
			log.DirectionBoth)
	}

	// Connect: the STARTTLS exchange over the plaintext socket.
	c.emitter().command("STARTTLS")
	if err := writeCommand(c.conn, wire.Line("STARTTLS")); err != nil {
		c.lastLibErr = err
		c.Cleanup()
		return c.fail(CodeConnect, err)
	}
	raw, err := awaitResponse(c.conn, c.config.TimeoutSeconds)
	if err != nil {
		c.lastLibErr = err
		c.Cleanup()
		return c.fail(CodeConnect, err)
	}
	response := wire.TrimLineTerminator(raw)
	code, codeErr := wire.ExtractReturnCode(response)
	c.emitter().response(code, response)
	if codeErr != nil || code != wire.CodeServiceReady {
		if codeErr == nil {
			codeErr = fmt.Errorf("server refused STARTTLS: %s", response)
		}
		c.lastLibErr = codeErr
		c.Cleanup()
		return c.fail(CodeConnect, codeErr)
	}

	// Handshake.
	c.emitter().handshake("<Negotiate a TLS session>", log.DirectionBoth)
	if err := c.tlsConn.HandshakeContext(ctx); err != nil {
		c.lastLibErr = err
		c.Cleanup()
		return c.fail(CodeHandshake, err)
	}

	c.emitter().handshake("<Check result of negotiation>", log.DirectionBoth)
	state := c.tlsConn.ConnectionState()

	// A server certificate must have been presented during the
	// negotiation. The certificate itself is not retained.
	if len(state.PeerCertificates) == 0 {
		c.Cleanup()
		return c.fail(CodeNoPeerCertificate, nil)
	}

	// Chain verification result, including any stapled OCSP response.
	if err := rec.verifyResult(); err != nil {
		c.lastLibErr = err
		c.Cleanup()
		return c.fail(CodeVerifyResult, err)
	}
	if err := checkStapledOCSP(state); err != nil {
		c.lastLibErr = err
		c.Cleanup()
		return c.fail(CodeVerifyResult, err)
	}

	c.established = true
	c.emitter().handshake("TLS session ready!", log.DirectionClient)
	return nil
}

// SendCommand writes a command over the TLS session. A failed write
// captures the underlying library error, tears down all resources and
// returns the caller-supplied error code.
func (c *SecureChannel) SendCommand(command string, errorCode Code) error {
	if c.tlsConn == nil || !c.established {
		return &ChannelError{Code: errorCode, Err: ErrNotEstablished}
	}
	c.emitter().command(wire.TrimLineTerminator(command))
	if err := writeCommand(c.tlsConn, command); err != nil {
		c.lastLibErr = err
		c.Cleanup()
		return &ChannelError{Code: errorCode, Err: err}
	}
	return nil
}

// SendCommandWithFeedback writes a command over the TLS session and
// waits for the server's reply within the timeout budget. The reply is
// recorded as the last server response (terminator stripped), logged,
// and its leading status code returned. Budget exhaustion tears down
// all resources and returns the caller-supplied timeout code.
func (c *SecureChannel) SendCommandWithFeedback(command string, errorCode, timeoutCode Code) (int, error) {
	if c.tlsConn == nil || !c.established {
		return 0, &ChannelError{Code: errorCode, Err: ErrNotEstablished}
	}

	c.emitter().command(wire.TrimLineTerminator(command))
	if err := writeCommand(c.tlsConn, command); err != nil {
		c.lastLibErr = err
		c.Cleanup()
		return 0, &ChannelError{Code: errorCode, Err: err}
	}

	raw, err := awaitResponse(c.tlsConn, c.config.TimeoutSeconds)
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
		// The session stays usable: a garbled line is a parse problem,
		// not a transport problem.
		return 0, &ChannelError{Code: CodeMalformedReply, Err: parseErr}
	}
	return code, nil
}

// Cleanup releases the TLS context, the TLS session and the socket, in
// that order. Every release is nil-guarded and every field is emptied
// immediately after release, so Cleanup is safe to call repeatedly and
// on a channel that never finished (or never started) its handshake.
func (c *SecureChannel) Cleanup() {
	c.tlsConf = nil
	if c.tlsConn != nil {
		_ = c.tlsConn.Close()
		c.tlsConn = nil
	}
	if c.conn != nil {
		// Orderly shutdown before close where the transport supports it.
		if tc, ok := c.conn.(*net.TCPConn); ok {
			_ = tc.CloseWrite()
		}
		_ = c.conn.Close()
		c.conn = nil
	}
	c.recorder = nil
	c.established = false
}

// Move transfers the live resource handles (context, session, socket)
// to a fresh channel and empties the source, so the source's Cleanup
// releases nothing the destination now owns.
func (c *SecureChannel) Move() *SecureChannel {
	dst := &SecureChannel{
		config:      c.config,
		connID:      c.connID,
		conn:        c.conn,
		tlsConf:     c.tlsConf,
		tlsConn:     c.tlsConn,
		recorder:    c.recorder,
		established: c.established,
		lastLibErr:  c.lastLibErr,
	}
	c.conn = nil
	c.tlsConf = nil
	c.tlsConn = nil
	c.recorder = nil
	c.established = false
	return dst
}

// Clone returns a channel with the same configuration and no live
// session state. TLS sessions are not meaningfully duplicable; a clone
// must run Upgrade itself before it can carry commands.
func (c *SecureChannel) Clone() *SecureChannel {
	return NewSecureChannel(c.config)
}

// fail logs the failure and wraps it in a ChannelError.
func (c *SecureChannel) fail(code Code, err error) error {
	c.emitter().failure(code, err)
	return &ChannelError{Code: code, Err: err}
}

func (c *SecureChannel) emitter() eventEmitter {
	return eventEmitter{
		logger: c.config.Logger,
		connID: c.connID,
		remote: c.config.Endpoint.String(),
		secure: c.established,
	}
}

// trustCode maps a trust-provisioning failure onto the corresponding
// stage code: a store that could not be opened is reported distinctly
// from a default-path configuration failure.
func trustCode(err error) Code {
	if errors.Is(err, cert.ErrStoreOpen) {
		return CodeStoreOpen
	}
	return CodeDefaultTrustPaths
}

// writeCommand writes a complete command line to the connection.
func writeCommand(conn net.Conn, command string) error {
	_, err := conn.Write([]byte(command))
	return err
}

// awaitResponse waits for server data in whole-second steps until the
// timeout budget is exhausted. A reply arriving at any point before
// expiry is accepted; a budget of n seconds never waits past n.
func awaitResponse(conn net.Conn, budgetSeconds int) (string, error) {
	buf := make([]byte, 1024)
	var lastErr error

	for waited := 0; waited < budgetSeconds; waited++ {
		tick := time.Now()
		_ = conn.SetReadDeadline(tick.Add(time.Second))
		n, err := conn.Read(buf)
		if n > 0 {
			_ = conn.SetReadDeadline(time.Time{})
			return string(buf[:n]), nil
		}
		if err != nil {
			lastErr = err
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			// A hard read error consumes the remainder of the current
			// one-second step, preserving the budget's granularity.
			time.Sleep(time.Until(tick.Add(time.Second)))
		}
	}

	_ = conn.SetReadDeadline(time.Time{})
	if lastErr != nil {
		return "", fmt.Errorf("%w: %v", errBudgetExhausted, lastErr)
	}
	return "", errBudgetExhausted
}
