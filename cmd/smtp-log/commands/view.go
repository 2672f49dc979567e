// Package commands implements the smtp-log CLI commands.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jeremydumais/smtpclient-go/pkg/log"
)

// ParseDirectionFlag converts a -direction flag value.
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch s {
	case "client", "c":
		return log.DirectionClient, nil
	case "server", "s":
		return log.DirectionServer, nil
	case "both":
		return log.DirectionBoth, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (client, server, both)", s)
	}
}

// ParseCategoryFlag converts a -category flag value.
func ParseCategoryFlag(s string) (log.Category, error) {
	switch s {
	case "command":
		return log.CategoryCommand, nil
	case "response":
		return log.CategoryResponse, nil
	case "handshake":
		return log.CategoryHandshake, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category %q (command, response, handshake, state, error)", s)
	}
}

// View prints the matching events of a log file in human-readable form.
func View(w io.Writer, path string, filter log.Filter) error {
	r, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return err
	}
	defer r.Close()

	count := 0
	for {
		event, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read error after %d events: %w", count, err)
		}
		formatEvent(w, event)
		count++
	}

	fmt.Fprintf(w, "%d events\n", count)
	return nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)
	channel := "plain"
	if event.Secure {
		channel = "tls"
	}

	fmt.Fprintf(w, "%s [conn:%s] %-5s %-9s %s\n",
		ts, connID, event.Direction, event.Category, channel)

	switch {
	case event.Command != nil:
		fmt.Fprintf(w, "  > %s\n", event.Command.Text)
	case event.Response != nil:
		fmt.Fprintf(w, "  < %d %s\n", event.Response.Code, event.Response.Text)
	case event.StateChange != nil:
		fmt.Fprintf(w, "  %s -> %s", event.StateChange.OldState, event.StateChange.NewState)
		if event.StateChange.Reason != "" {
			fmt.Fprintf(w, " (%s)", event.StateChange.Reason)
		}
		fmt.Fprintln(w)
	case event.Error != nil:
		fmt.Fprintf(w, "  ! %s", event.Error.Message)
		if event.Error.Code != nil {
			fmt.Fprintf(w, " [code %d]", *event.Error.Code)
		}
		fmt.Fprintln(w)
	}
	if event.Note != "" {
		fmt.Fprintf(w, "  %s\n", event.Note)
	}
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// Export writes the matching events of a log file as JSON lines.
func Export(w io.Writer, path string, filter log.Filter) error {
	r, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return err
	}
	defer r.Close()

	enc := json.NewEncoder(w)
	for {
		event, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := enc.Encode(exportRecord(event)); err != nil {
			return err
		}
	}
}

// exportRecord flattens an event for JSON export.
func exportRecord(event log.Event) map[string]any {
	rec := map[string]any{
		"timestamp":     event.Timestamp,
		"connection_id": event.ConnectionID,
		"direction":     event.Direction.String(),
		"category":      event.Category.String(),
		"secure":        event.Secure,
	}
	if event.RemoteAddr != "" {
		rec["remote_addr"] = event.RemoteAddr
	}
	if event.Command != nil {
		rec["command"] = event.Command.Text
	}
	if event.Response != nil {
		rec["code"] = event.Response.Code
		rec["response"] = event.Response.Text
	}
	if event.StateChange != nil {
		rec["old_state"] = event.StateChange.OldState
		rec["new_state"] = event.StateChange.NewState
	}
	if event.Error != nil {
		rec["error"] = event.Error.Message
		if event.Error.Code != nil {
			rec["error_code"] = *event.Error.Code
		}
	}
	if event.Note != "" {
		rec["note"] = event.Note
	}
	return rec
}
