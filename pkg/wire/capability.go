package wire

import "strings"

// Extension represents an SMTP service extension keyword advertised in
// an EHLO reply (RFC 5321 §2.2).
type Extension string

// Extension keywords the client cares about.
const (
	ExtSTARTTLS Extension = "STARTTLS"
	ExtAUTH     Extension = "AUTH"
	ExtSIZE     Extension = "SIZE"
	Ext8BITMIME Extension = "8BITMIME"
)

// Extensions maps advertised extension keywords to their parameter
// string (e.g. "AUTH" -> "PLAIN LOGIN").
type Extensions map[Extension]string

// Has reports whether the extension set includes the given keyword.
func (e Extensions) Has(ext Extension) bool {
	_, ok := e[ext]
	return ok
}

// Param returns the parameter string for the given extension keyword.
func (e Extensions) Param(ext Extension) string {
	return e[ext]
}

// AuthOptions captures the authentication mechanisms a server advertised
// in its EHLO reply. A fresh value replaces any previously held one when
// EHLO is re-issued over the secure channel.
type AuthOptions struct {
	// Plain indicates SASL PLAIN support.
	Plain bool

	// Login indicates SASL LOGIN support.
	Login bool

	// CramMD5 indicates SASL CRAM-MD5 support.
	CramMD5 bool

	// XOAuth2 indicates SASL XOAUTH2 support.
	XOAuth2 bool

	// Mechanisms lists every advertised mechanism name, in server order.
	Mechanisms []string
}

// ParseExtensions parses a raw (possibly multi-line) EHLO reply into the
// advertised extension set. Each line after the greeting is expected to
// be "250-KEYWORD [params]" or "250 KEYWORD [params]".
func ParseExtensions(response string) Extensions {
	exts := make(Extensions)
	lines := strings.Split(response, "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		rest, ok := stripReplyCode(line)
		if !ok {
			continue
		}
		if i == 0 {
			continue // greeting line (server hostname)
		}
		keyword, params, _ := strings.Cut(rest, " ")
		if keyword == "" {
			continue
		}
		exts[Extension(strings.ToUpper(keyword))] = params
	}
	return exts
}

// ParseAuthOptions extracts the advertised AUTH mechanisms from a raw
// EHLO reply. Returns a value with no mechanisms when AUTH is absent.
func ParseAuthOptions(response string) *AuthOptions {
	opts := &AuthOptions{}
	exts := ParseExtensions(response)
	params, ok := exts[ExtAUTH]
	if !ok {
		return opts
	}
	for _, mech := range strings.Fields(params) {
		mech = strings.ToUpper(mech)
		opts.Mechanisms = append(opts.Mechanisms, mech)
		switch mech {
		case "PLAIN":
			opts.Plain = true
		case "LOGIN":
			opts.Login = true
		case "CRAM-MD5":
			opts.CramMD5 = true
		case "XOAUTH2":
			opts.XOAuth2 = true
		}
	}
	return opts
}

// stripReplyCode removes a leading "250-" or "250 " style reply code
// from an EHLO line, reporting whether one was present.
func stripReplyCode(line string) (string, bool) {
	if len(line) < 4 {
		return "", false
	}
	for i := 0; i < 3; i++ {
		if line[i] < '0' || line[i] > '9' {
			return "", false
		}
	}
	if line[3] != '-' && line[3] != ' ' {
		return "", false
	}
	return line[4:], true
}
