package commands

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremydumais/smtpclient-go/pkg/log"
)

func writeSampleLog(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "session.cborlog")
	fl, err := log.NewFileLogger(path)
	require.NoError(t, err)

	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	code := -6
	events := []log.Event{
		{
			Timestamp:    base,
			ConnectionID: "11111111-aaaa",
			Direction:    log.DirectionClient,
			Category:     log.CategoryHandshake,
			Note:         "<Start TLS negotiation>",
		},
		{
			Timestamp:    base.Add(time.Second),
			ConnectionID: "11111111-aaaa",
			Direction:    log.DirectionClient,
			Category:     log.CategoryCommand,
			Secure:       true,
			Command:      &log.CommandEvent{Text: "EHLO client.example.com"},
		},
		{
			Timestamp:    base.Add(2 * time.Second),
			ConnectionID: "11111111-aaaa",
			Direction:    log.DirectionServer,
			Category:     log.CategoryResponse,
			Secure:       true,
			Response:     &log.ResponseEvent{Code: 250, Text: "250 OK"},
		},
		{
			Timestamp:    base.Add(3 * time.Second),
			ConnectionID: "22222222-bbbb",
			Direction:    log.DirectionClient,
			Category:     log.CategoryError,
			Error:        &log.ErrorEventData{Message: "handshake failed", Code: &code},
		},
	}
	for _, ev := range events {
		fl.Log(ev)
	}
	require.NoError(t, fl.Close())
	return path
}

func TestView(t *testing.T) {
	path := writeSampleLog(t)

	var buf bytes.Buffer
	require.NoError(t, View(&buf, path, log.Filter{}))

	out := buf.String()
	assert.Contains(t, out, "<Start TLS negotiation>")
	assert.Contains(t, out, "> EHLO client.example.com")
	assert.Contains(t, out, "< 250 250 OK")
	assert.Contains(t, out, "! handshake failed [code -6]")
	assert.Contains(t, out, "4 events")
}

func TestView_Filtered(t *testing.T) {
	path := writeSampleLog(t)

	cat := log.CategoryResponse
	var buf bytes.Buffer
	require.NoError(t, View(&buf, path, log.Filter{Category: &cat}))

	out := buf.String()
	assert.Contains(t, out, "1 events")
	assert.NotContains(t, out, "EHLO")
}

func TestExport(t *testing.T) {
	path := writeSampleLog(t)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, path, log.Filter{SecureOnly: true}))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), `"command":"EHLO client.example.com"`)
	assert.Contains(t, string(lines[1]), `"code":250`)
}

func TestCollect(t *testing.T) {
	path := writeSampleLog(t)

	stats, err := Collect(path)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Events)
	assert.Len(t, stats.Connections, 2)
	assert.Equal(t, 2, stats.SecureCount)
	assert.Equal(t, 1, stats.Categories[log.CategoryError])

	var buf bytes.Buffer
	stats.Print(&buf)
	assert.Contains(t, buf.String(), "Events:      4")
}

func TestParseFlags(t *testing.T) {
	d, err := ParseDirectionFlag("server")
	require.NoError(t, err)
	assert.Equal(t, log.DirectionServer, d)

	_, err = ParseDirectionFlag("sideways")
	assert.Error(t, err)

	c, err := ParseCategoryFlag("handshake")
	require.NoError(t, err)
	assert.Equal(t, log.CategoryHandshake, c)

	_, err = ParseCategoryFlag("chatter")
	assert.Error(t, err)
}
