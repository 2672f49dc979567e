package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvents(connID string) []Event {
	now := time.Now()
	code := 250
	return []Event{
		{
			Timestamp:    now,
			ConnectionID: connID,
			Direction:    DirectionClient,
			Category:     CategoryCommand,
			RemoteAddr:   "mail.example.com:587",
			Command:      &CommandEvent{Text: "EHLO localhost"},
		},
		{
			Timestamp:    now.Add(time.Millisecond),
			ConnectionID: connID,
			Direction:    DirectionServer,
			Category:     CategoryResponse,
			Response:     &ResponseEvent{Code: code, Text: "250 OK"},
		},
		{
			Timestamp:    now.Add(2 * time.Millisecond),
			ConnectionID: connID,
			Direction:    DirectionBoth,
			Category:     CategoryHandshake,
			Secure:       true,
			Note:         "<Negotiate a TLS session>",
		},
	}
}

func TestFileLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.clog")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	events := sampleEvents("conn-1")
	for _, e := range events {
		logger.Log(e)
	}
	require.NoError(t, logger.Close())

	// Close is idempotent and later Log calls are ignored.
	require.NoError(t, logger.Close())
	logger.Log(Event{ConnectionID: "ignored"})

	reader, err := NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	var got []Event
	for {
		e, err := reader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, e)
	}

	require.Len(t, got, len(events))
	assert.Equal(t, "EHLO localhost", got[0].Command.Text)
	assert.Equal(t, DirectionClient, got[0].Direction)
	assert.Equal(t, 250, got[1].Response.Code)
	assert.True(t, got[2].Secure)
	assert.Equal(t, "<Negotiate a TLS session>", got[2].Note)
}

func TestFilteredReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.clog")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)
	for _, e := range sampleEvents("conn-a") {
		logger.Log(e)
	}
	for _, e := range sampleEvents("conn-b") {
		logger.Log(e)
	}
	require.NoError(t, logger.Close())

	dir := DirectionServer
	reader, err := NewFilteredReader(path, Filter{
		ConnectionID: "conn-b",
		Direction:    &dir,
	})
	require.NoError(t, err)
	defer reader.Close()

	e, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, "conn-b", e.ConnectionID)
	assert.Equal(t, CategoryResponse, e.Category)

	_, err = reader.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDirectionTags(t *testing.T) {
	assert.Equal(t, "c", DirectionClient.String())
	assert.Equal(t, "s", DirectionServer.String())
	assert.Equal(t, "c & s", DirectionBoth.String())
}

func TestMultiLogger(t *testing.T) {
	var a, b recordingLogger
	m := NewMultiLogger(&a, &b)
	m.Log(Event{ConnectionID: "x"})

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, "x", a.events[0].ConnectionID)
}

type recordingLogger struct {
	events []Event
}

func (r *recordingLogger) Log(e Event) { r.events = append(r.events, e) }
