package client

import "fmt"

// TLSPolicy governs whether and how strictly the client upgrades the
// connection with STARTTLS.
type TLSPolicy int

const (
	// TLSMandatory requires a successful STARTTLS upgrade; a server
	// that does not offer the extension causes connection failure.
	TLSMandatory TLSPolicy = iota

	// TLSOpportunistic upgrades when the server offers STARTTLS and
	// continues in plaintext when it does not.
	TLSOpportunistic

	// NoTLS never upgrades. Commands stay on the plaintext channel.
	NoTLS
)

// String returns the policy name.
func (p TLSPolicy) String() string {
	switch p {
	case TLSMandatory:
		return "mandatory"
	case TLSOpportunistic:
		return "opportunistic"
	case NoTLS:
		return "notls"
	default:
		return "unknown"
	}
}

// ParseTLSPolicy converts a policy name to a TLSPolicy.
func ParseTLSPolicy(s string) (TLSPolicy, error) {
	switch s {
	case "mandatory", "":
		return TLSMandatory, nil
	case "opportunistic":
		return TLSOpportunistic, nil
	case "notls", "none":
		return NoTLS, nil
	default:
		return TLSMandatory, fmt.Errorf("unknown TLS policy %q", s)
	}
}
