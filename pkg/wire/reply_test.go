package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractReturnCode(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     int
	}{
		{"simple ok", "250 OK", 250},
		{"greeting", "220 mail.example.com ESMTP ready", 220},
		{"continuation form", "250-mail.example.com greets client", 250},
		{"terminator still attached", "354 End data with <CR><LF>.<CR><LF>\r\n", 354},
		{"permanent failure", "554 Transaction failed", 554},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := ExtractReturnCode(tt.response)
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestExtractReturnCode_Malformed(t *testing.T) {
	for _, response := range []string{"", "   ", "OK 250", "abc-def", "99 too small", "600 out of range"} {
		_, err := ExtractReturnCode(response)
		assert.ErrorIs(t, err, ErrMalformedReply, "response %q", response)
	}
}

func TestTrimLineTerminator(t *testing.T) {
	assert.Equal(t, "250 OK", TrimLineTerminator("250 OK\r\n"))
	assert.Equal(t, "250 OK", TrimLineTerminator("250 OK\n"))
	assert.Equal(t, "250 OK", TrimLineTerminator("250 OK"))
	assert.Equal(t, "250-first\r\n250 last", TrimLineTerminator("250-first\r\n250 last\r\n"))
}

func TestLine(t *testing.T) {
	assert.Equal(t, "STARTTLS\r\n", Line("STARTTLS"))
	assert.Equal(t, "STARTTLS\r\n", Line("STARTTLS\r\n"))
	assert.Equal(t, "EHLO localhost\r\n", EHLO(""))
	assert.Equal(t, "EHLO client.example.org\r\n", EHLO("client.example.org"))
}

func TestClassHelpers(t *testing.T) {
	assert.Equal(t, ClassPositiveCompletion, Class(250))
	assert.Equal(t, ClassTransientNegative, Class(421))
	assert.True(t, IsPositive(220))
	assert.True(t, IsPositive(354))
	assert.False(t, IsPositive(554))
}

func TestExtractReturnCode_WrappedError(t *testing.T) {
	_, err := ExtractReturnCode("hello world")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedReply))
}
