// Command smtp-client is an interactive SMTP client with STARTTLS
// support.
//
// The client connects in plaintext, reads the server's capabilities and
// upgrades the session with STARTTLS according to its TLS policy. Every
// command and reply is recorded in a CBOR communication log that the
// smtp-log tool can view.
//
// Usage:
//
//	smtp-client [flags]
//
// Flags:
//
//	-config string   YAML configuration file path
//	-server string   SMTP server name (overrides config)
//	-port int        SMTP server port (overrides config)
//	-policy string   TLS policy: mandatory, opportunistic, notls
//	-log string      Communication log file (CBOR)
//	-verbose         Mirror the communication log to stderr
//
// Examples:
//
//	# Interactive session against a submission server
//	smtp-client -server smtp.example.com -port 587
//
//	# Opportunistic TLS with a config file and log capture
//	smtp-client -config client.yaml -policy opportunistic -log session.cborlog
package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeremydumais/smtpclient-go/cmd/smtp-client/interactive"
	"github.com/jeremydumais/smtpclient-go/pkg/config"
	"github.com/jeremydumais/smtpclient-go/pkg/log"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file path")
	server := flag.String("server", "", "SMTP server name (overrides config)")
	port := flag.Int("port", 0, "SMTP server port (overrides config)")
	policy := flag.String("policy", "", "TLS policy: mandatory, opportunistic, notls")
	logPath := flag.String("log", "", "Communication log file (CBOR)")
	verbose := flag.Bool("verbose", false, "Mirror the communication log to stderr")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			stdlog.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *server != "" {
		cfg.Server = *server
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *policy != "" {
		cfg.TLSPolicy = *policy
	}
	if *logPath != "" {
		cfg.LogFile = *logPath
	}
	if cfg.Server != "" {
		if err := cfg.Validate(); err != nil {
			stdlog.Fatalf("Invalid configuration: %v", err)
		}
	}

	logger, closeLogger, err := buildLogger(cfg, *verbose)
	if err != nil {
		stdlog.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLogger()

	shell, err := interactive.New(cfg, logger)
	if err != nil {
		stdlog.Fatalf("Failed to start shell: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	shell.Run(ctx)
}

// buildLogger assembles the communication logger from the configuration
// and flags. The returned func releases any file resources.
func buildLogger(cfg config.Config, verbose bool) (log.Logger, func(), error) {
	var loggers []log.Logger
	closer := func() {}

	if cfg.LogFile != "" {
		fl, err := log.NewFileLogger(cfg.LogFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		loggers = append(loggers, fl)
		closer = func() { _ = fl.Close() }
	}
	if verbose {
		loggers = append(loggers, log.NewSlogAdapter(
			slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}))))
	}

	switch len(loggers) {
	case 0:
		return log.NoopLogger{}, closer, nil
	case 1:
		return loggers[0], closer, nil
	default:
		return log.NewMultiLogger(loggers...), closer, nil
	}
}
