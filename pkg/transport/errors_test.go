package transport

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeString(t *testing.T) {
	cases := []struct {
		code Code
		want string
	}{
		{CodeOK, "OK"},
		{CodeInitTLSConfig, "INITSSLCTX_ERROR"},
		{CodeSessionNew, "NEWSSLCONNECT_ERROR"},
		{CodeStoreOpen, "CERTSTORE_OPEN_ERROR"},
		{CodeDefaultTrustPaths, "SET_DEFAULT_VERIFY_PATHS_ERROR"},
		{CodeConnect, "CONNECT_ERROR"},
		{CodeHandshake, "HANDSHAKE_ERROR"},
		{CodeNoPeerCertificate, "GET_CERTIFICATE_ERROR"},
		{CodeVerifyResult, "VERIFY_RESULT_ERROR"},
		{CodeMalformedReply, "MALFORMED_REPLY_ERROR"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.code.String())
	}
}

func TestChannelError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &ChannelError{Code: CodeHandshake, Err: cause}

	assert.Contains(t, err.Error(), "HANDSHAKE_ERROR")
	assert.Contains(t, err.Error(), "connection reset")
	assert.ErrorIs(t, err, cause)
}

func TestChannelError_NoCause(t *testing.T) {
	err := &ChannelError{Code: CodeNoPeerCertificate}
	assert.Contains(t, err.Error(), "GET_CERTIFICATE_ERROR")
	assert.Nil(t, errors.Unwrap(err))
}

func TestCodeOf(t *testing.T) {
	err := &ChannelError{Code: CodeVerifyResult, Err: errors.New("untrusted")}
	assert.Equal(t, CodeVerifyResult, CodeOf(err))

	wrapped := fmt.Errorf("during upgrade: %w", err)
	assert.Equal(t, CodeVerifyResult, CodeOf(wrapped))

	assert.Equal(t, CodeOK, CodeOf(nil))
	assert.Equal(t, CodeOK, CodeOf(errors.New("plain")))
}
