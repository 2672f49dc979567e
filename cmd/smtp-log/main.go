// Command smtp-log views and analyzes SMTP communication log files.
//
// Log files are produced by the client's file logger (CBOR encoded, one
// event per record).
//
// Usage:
//
//	smtp-log <command> [flags] <file.cborlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSON lines
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	smtp-log view session.cborlog
//
//	# View only the TLS negotiation steps
//	smtp-log view -category handshake session.cborlog
//
//	# View only server replies on the secure channel
//	smtp-log view -direction server -secure session.cborlog
//
//	# Export to JSONL
//	smtp-log export session.cborlog > session.jsonl
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jeremydumais/smtpclient-go/cmd/smtp-log/commands"
	"github.com/jeremydumais/smtpclient-go/pkg/log"
)

const usage = `smtp-log - SMTP communication log analyzer

Usage:
  smtp-log <command> [flags] <file.cborlog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON lines
  stats    Show statistics about the log file

Use "smtp-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args, false)
	case "export":
		runView(args, true)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string, export bool) {
	name := "view"
	if export {
		name = "export"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)

	connID := fs.String("conn-id", "", "Filter by connection ID")
	direction := fs.String("direction", "", "Filter by direction (client, server, both)")
	category := fs.String("category", "", "Filter by category (command, response, handshake, state, error)")
	secure := fs.Bool("secure", false, "Keep only events from the TLS-protected phase")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	filter := log.Filter{
		ConnectionID: *connID,
		SecureOnly:   *secure,
	}
	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			fatal(err)
		}
		filter.Direction = &d
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fatal(err)
		}
		filter.Category = &c
	}

	var err error
	if export {
		err = commands.Export(os.Stdout, fs.Arg(0), filter)
	} else {
		err = commands.View(os.Stdout, fs.Arg(0), filter)
	}
	if err != nil {
		fatal(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		os.Exit(1)
	}

	stats, err := commands.Collect(fs.Arg(0))
	if err != nil {
		fatal(err)
	}
	stats.Print(os.Stdout)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
