// Package interactive provides the interactive command-line interface
// for the SMTP client.
package interactive

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/jeremydumais/smtpclient-go/pkg/cert"
	"github.com/jeremydumais/smtpclient-go/pkg/client"
	"github.com/jeremydumais/smtpclient-go/pkg/config"
	"github.com/jeremydumais/smtpclient-go/pkg/discovery"
	"github.com/jeremydumais/smtpclient-go/pkg/log"
	"github.com/jeremydumais/smtpclient-go/pkg/transport"
	"github.com/jeremydumais/smtpclient-go/pkg/wire"
)

// Shell handles interactive mode for smtp-client.
type Shell struct {
	cfg    config.Config
	logger log.Logger
	rl     *readline.Instance

	cli *client.SecureClient
}

// New creates a new interactive shell.
func New(cfg config.Config, logger log.Logger) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "smtp> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Shell{
		cfg:    cfg,
		logger: logger,
		rl:     rl,
	}, nil
}

// Stdout returns a writer that coordinates with the readline input.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run starts the interactive loop. It returns when the user exits.
func (s *Shell) Run(ctx context.Context) {
	defer s.rl.Close()
	defer s.disconnect()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.Stdout(), "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()

		case "connect", "c":
			s.cmdConnect(ctx, args)

		case "starttls":
			s.cmdStartTLS(ctx)

		case "ehlo":
			s.cmdEHLO()

		case "send":
			s.cmdSend(args)

		case "options", "o":
			s.cmdOptions()

		case "status":
			s.cmdStatus()

		case "discover", "d":
			s.cmdDiscover(ctx)

		case "disconnect":
			s.disconnect()

		case "quit", "exit", "q":
			s.disconnect()
			fmt.Fprintln(s.Stdout(), "Bye.")
			return

		default:
			fmt.Fprintf(s.Stdout(), "Unknown command: %s (try 'help')\n", cmd)
		}
	}
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.Stdout(), `Commands:
  connect [host [port]]  Connect and negotiate per the TLS policy
  starttls               Upgrade the current plaintext session
  ehlo                   Re-issue EHLO on the active channel
  send <command...>      Send a raw command and print the reply
  options                Show advertised extensions and auth options
  status                 Show connection and TLS state
  discover               Browse the local network for mail services
  disconnect             Close the current session
  quit                   Exit
`)
}

func (s *Shell) cmdConnect(ctx context.Context, args []string) {
	if s.cli != nil {
		fmt.Fprintln(s.Stdout(), "Already connected; 'disconnect' first.")
		return
	}

	cfg := s.cfg
	if len(args) > 0 {
		cfg.Server = args[0]
	}
	if len(args) > 1 {
		if _, err := fmt.Sscanf(args[1], "%d", &cfg.Port); err != nil {
			fmt.Fprintf(s.Stdout(), "Bad port %q\n", args[1])
			return
		}
	}
	if cfg.Server == "" {
		fmt.Fprintln(s.Stdout(), "No server configured; use: connect <host> [port]")
		return
	}

	cli := client.NewSecureClient(cfg.Server, cfg.Port,
		client.WithLocalName(cfg.LocalName),
		client.WithCommandTimeout(cfg.CommandTimeout()),
		client.WithLogger(s.logger),
	)
	cli.SetTLSPolicy(cfg.Policy())
	if len(cfg.ExtraCAFiles) > 0 {
		cli.SetTrustProvisioner(cert.FileProvisioner{Paths: cfg.ExtraCAFiles})
	}

	start := time.Now()
	if err := cli.Connect(ctx); err != nil {
		fmt.Fprintf(s.Stdout(), "Connect failed: %v (code %d)\n", err, transport.CodeOf(err))
		cli.Close()
		return
	}
	s.cli = cli

	fmt.Fprintf(s.Stdout(), "Connected to %s in %s\n",
		cfg.Server, time.Since(start).Round(time.Millisecond))
	s.cmdStatus()
}

func (s *Shell) cmdStartTLS(ctx context.Context) {
	if s.cli == nil {
		fmt.Fprintln(s.Stdout(), "Not connected.")
		return
	}
	if s.cli.Secured() {
		fmt.Fprintln(s.Stdout(), "Session is already TLS-protected.")
		return
	}

	if err := s.cli.StartTLSNegotiation(ctx); err != nil {
		fmt.Fprintf(s.Stdout(), "STARTTLS failed: %v\n", err)
		s.disconnect()
		return
	}
	if !s.cli.Secured() {
		fmt.Fprintln(s.Stdout(), "Server does not offer STARTTLS; still in plaintext.")
		return
	}
	if _, err := s.cli.GetServerSecureIdentification(); err != nil {
		fmt.Fprintf(s.Stdout(), "Secure EHLO failed: %v\n", err)
		s.disconnect()
		return
	}
	s.cmdStatus()
}

func (s *Shell) cmdEHLO() {
	if s.cli == nil {
		fmt.Fprintln(s.Stdout(), "Not connected.")
		return
	}

	var (
		code int
		err  error
	)
	if s.cli.Secured() {
		code, err = s.cli.GetServerSecureIdentification()
	} else {
		code, err = s.cli.Channel().SendCommandWithFeedback(
			wire.EHLO(s.cfg.LocalName),
			client.CodeIdentification, client.CodeIdentificationTimeout)
	}
	if err != nil {
		fmt.Fprintf(s.Stdout(), "EHLO failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.Stdout(), "%d\n%s\n", code, s.cli.LastServerResponse())
}

func (s *Shell) cmdSend(args []string) {
	if s.cli == nil {
		fmt.Fprintln(s.Stdout(), "Not connected.")
		return
	}
	if len(args) == 0 {
		fmt.Fprintln(s.Stdout(), "Usage: send <command...>")
		return
	}

	command := wire.Line(strings.Join(args, " "))
	code, err := s.cli.Channel().SendCommandWithFeedback(command,
		client.CodeIdentification, client.CodeIdentificationTimeout)
	if err != nil {
		fmt.Fprintf(s.Stdout(), "Send failed: %v\n", err)
		if transport.CodeOf(err) != transport.CodeMalformedReply {
			s.disconnect()
		}
		return
	}
	fmt.Fprintf(s.Stdout(), "%d %s\n", code, s.cli.LastServerResponse())
}

func (s *Shell) cmdOptions() {
	if s.cli == nil {
		fmt.Fprintln(s.Stdout(), "Not connected.")
		return
	}

	exts := s.cli.Extensions()
	if len(exts) == 0 {
		fmt.Fprintln(s.Stdout(), "No extensions advertised.")
	} else {
		names := make([]string, 0, len(exts))
		for ext := range exts {
			names = append(names, string(ext))
		}
		sort.Strings(names)
		fmt.Fprintln(s.Stdout(), "Extensions:")
		for _, name := range names {
			if param := exts.Param(wire.Extension(name)); param != "" {
				fmt.Fprintf(s.Stdout(), "  %s %s\n", name, param)
			} else {
				fmt.Fprintf(s.Stdout(), "  %s\n", name)
			}
		}
	}

	if auth := s.cli.AuthOptions(); auth != nil {
		fmt.Fprintf(s.Stdout(), "Auth mechanisms: %s\n", strings.Join(auth.Mechanisms, " "))
	}
}

func (s *Shell) cmdStatus() {
	if s.cli == nil {
		fmt.Fprintln(s.Stdout(), "Not connected.")
		return
	}

	fmt.Fprintf(s.Stdout(), "Server:  %s:%d\n", s.cli.ServerName(), s.cli.Port())
	fmt.Fprintf(s.Stdout(), "Policy:  %s\n", s.cli.TLSPolicy())
	if s.cli.Secured() {
		state, err := s.cli.ConnectionState()
		if err == nil {
			fmt.Fprintf(s.Stdout(), "Channel: TLS (%s, %s)\n",
				tlsVersionName(state.Version), state.PeerCertificates[0].Subject.CommonName)
			return
		}
	}
	fmt.Fprintln(s.Stdout(), "Channel: plaintext")
}

func (s *Shell) cmdDiscover(ctx context.Context) {
	browser := discovery.NewBrowser(discovery.DefaultBrowserConfig())

	browseCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := browser.BrowseSubmission(browseCtx)
	if err != nil {
		fmt.Fprintf(s.Stdout(), "Discovery failed: %v\n", err)
		return
	}

	fmt.Fprintln(s.Stdout(), "Browsing for mail services (5s)...")
	found := 0
	for svc := range out {
		found++
		fmt.Fprintf(s.Stdout(), "  %s  %s:%d  %s\n",
			svc.InstanceName, svc.Host, svc.Port, strings.Join(svc.Addresses, " "))
	}
	if found == 0 {
		fmt.Fprintln(s.Stdout(), "No mail services found.")
	}
}

func (s *Shell) disconnect() {
	if s.cli == nil {
		return
	}
	s.cli.Quit()
	s.cli = nil
	fmt.Fprintln(s.Stdout(), "Disconnected.")
}

func tlsVersionName(v uint16) string {
	switch v {
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("0x%04x", v)
	}
}
