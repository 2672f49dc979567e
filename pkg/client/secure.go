package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/jeremydumais/smtpclient-go/pkg/cert"
	"github.com/jeremydumais/smtpclient-go/pkg/log"
	"github.com/jeremydumais/smtpclient-go/pkg/transport"
	"github.com/jeremydumais/smtpclient-go/pkg/wire"
)

// SecureClient elevates the plaintext session with STARTTLS. The
// greeting and first EHLO happen in plaintext through the embedded
// Client; StartTLSNegotiation hands the socket to a
// transport.SecureChannel, and once the upgrade succeeds the
// capabilities are re-read over the protected channel.
type SecureClient struct {
	*Client

	trust  cert.Provisioner
	policy TLSPolicy

	secure *transport.SecureChannel
}

// NewSecureClient creates a secure client for the given server. The
// default TLS policy is mandatory and the default trust source is the
// platform certificate store.
func NewSecureClient(serverName string, port int, opts ...Option) *SecureClient {
	return &SecureClient{
		Client: NewClient(serverName, port, opts...),
		trust:  cert.SystemProvisioner{},
		policy: TLSMandatory,
	}
}

// SetTrustProvisioner replaces the trust-anchor source used for the
// upgrade. Must be called before StartTLSNegotiation.
func (c *SecureClient) SetTrustProvisioner(p cert.Provisioner) {
	if p != nil {
		c.trust = p
	}
}

// SetTLSPolicy replaces the upgrade policy. Must be called before
// StartTLSNegotiation.
func (c *SecureClient) SetTLSPolicy(policy TLSPolicy) {
	c.policy = policy
}

// TLSPolicy returns the active upgrade policy.
func (c *SecureClient) TLSPolicy() TLSPolicy { return c.policy }

// Secured reports whether the session runs over an established TLS
// channel.
func (c *SecureClient) Secured() bool {
	return c.secure != nil && c.secure.Established()
}

// ConnectionState returns the TLS state of the secure session.
func (c *SecureClient) ConnectionState() (tls.ConnectionState, error) {
	if c.secure == nil {
		return tls.ConnectionState{}, transport.ErrNotEstablished
	}
	return c.secure.ConnectionState()
}

// Channel returns the active command channel: the secure one once the
// upgrade completed, otherwise the plaintext one.
func (c *SecureClient) Channel() transport.CommandChannel {
	if c.Secured() {
		return c.secure
	}
	return c.Client.Channel()
}

// Connect runs the complete session setup: plaintext connect and EHLO,
// STARTTLS upgrade per the TLS policy, and the secure re-identification
// when the upgrade took place.
func (c *SecureClient) Connect(ctx context.Context) error {
	if err := c.Client.Connect(ctx); err != nil {
		return err
	}
	if err := c.StartTLSNegotiation(ctx); err != nil {
		return err
	}
	if !c.Secured() {
		return nil
	}
	if _, err := c.GetServerSecureIdentification(); err != nil {
		return err
	}
	return nil
}

// StartTLSNegotiation upgrades the connection to TLS according to the
// policy. Under an opportunistic policy a server that does not offer
// STARTTLS leaves the session in plaintext without error; under a
// mandatory policy it is a failure.
func (c *SecureClient) StartTLSNegotiation(ctx context.Context) error {
	if c.policy == NoTLS {
		return nil
	}
	if c.Secured() {
		return nil
	}
	if !c.Connected() {
		return &transport.ChannelError{Code: CodeInitSecureClient, Err: transport.ErrNotConnected}
	}

	if !c.extensions.Has(wire.ExtSTARTTLS) {
		if c.policy == TLSOpportunistic {
			c.AddCommunicationLogItem("server does not offer STARTTLS, continuing in plaintext",
				log.DirectionClient)
			return nil
		}
		return &transport.ChannelError{
			Code: CodeInitSecureClient,
			Err:  fmt.Errorf("server %s does not offer STARTTLS", c.serverName),
		}
	}

	conn := c.plain.Release()
	if conn == nil {
		return &transport.ChannelError{Code: CodeInitSecureClient, Err: transport.ErrNotConnected}
	}

	cfg := c.channelConfig()
	cfg.Trust = c.trust
	c.secure = transport.NewSecureChannel(cfg)

	if err := c.secure.Upgrade(ctx, conn); err != nil {
		// The secure channel already released every resource,
		// including the socket it took over.
		return err
	}
	return nil
}

// GetServerSecureIdentification re-runs the EHLO exchange over the
// established TLS channel and replaces the remembered authentication
// options and extensions with the ones the server advertises on the
// protected session. It returns the reply's status code.
func (c *SecureClient) GetServerSecureIdentification() (int, error) {
	if !c.Secured() {
		return 0, &transport.ChannelError{
			Code: CodeInitSecureClient,
			Err:  transport.ErrNotEstablished,
		}
	}

	code, err := c.secure.SendCommandWithFeedback(wire.EHLO(c.localName),
		CodeInitSecureClient, CodeInitSecureClientTimeout)
	if err != nil {
		return 0, err
	}
	if code != wire.CodeActionOK {
		return code, &transport.ChannelError{
			Code: CodeInitSecureClient,
			Err:  fmt.Errorf("secure EHLO rejected with %d: %s", code, c.lastServerResponse),
		}
	}
	c.extensions = wire.ParseExtensions(c.lastServerResponse)
	c.authOptions = wire.ParseAuthOptions(c.lastServerResponse)
	return code, nil
}

// LastChannelError returns the secure channel's captured underlying
// library error, if any.
func (c *SecureClient) LastChannelError() error {
	if c.secure == nil {
		return nil
	}
	return c.secure.LastLibraryError()
}

// Quit sends QUIT on the active channel and closes the session.
func (c *SecureClient) Quit() {
	if c.Secured() {
		_, _ = c.secure.SendCommandWithFeedback(wire.Line("QUIT"),
			CodeInitSecureClient, CodeInitSecureClientTimeout)
	}
	c.Close()
}

// Close releases the secure session and the plaintext connection. Safe
// to call repeatedly.
func (c *SecureClient) Close() {
	if c.secure != nil {
		c.secure.Cleanup()
	}
	c.Client.Close()
}

// IsChannelError reports whether err carries the given channel code.
func IsChannelError(err error, code transport.Code) bool {
	var ce *transport.ChannelError
	return errors.As(err, &ce) && ce.Code == code
}
