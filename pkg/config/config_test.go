package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremydumais/smtpclient-go/pkg/client"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server: smtp.example.com
port: 465
local_name: client.example.com
command_timeout_seconds: 10
tls_policy: opportunistic
log_file: /tmp/smtp.cborlog
extra_ca_files:
  - /etc/ssl/extra/corp-ca.pem
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", cfg.Server)
	assert.Equal(t, 465, cfg.Port)
	assert.Equal(t, "client.example.com", cfg.LocalName)
	assert.Equal(t, 10*time.Second, cfg.CommandTimeout())
	assert.Equal(t, client.TLSOpportunistic, cfg.Policy())
	assert.Equal(t, "/tmp/smtp.cborlog", cfg.LogFile)
	assert.Equal(t, []string{"/etc/ssl/extra/corp-ca.pem"}, cfg.ExtraCAFiles)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "server: smtp.example.com\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 587, cfg.Port)
	assert.Equal(t, "localhost", cfg.LocalName)
	assert.Equal(t, client.TLSMandatory, cfg.Policy())
	assert.Empty(t, cfg.LogFile)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "YAML parse error")
}

func TestValidate(t *testing.T) {
	base := Default()
	base.Server = "smtp.example.com"
	require.NoError(t, base.Validate())

	noServer := base
	noServer.Server = ""
	assert.ErrorContains(t, noServer.Validate(), "server")

	badPort := base
	badPort.Port = 70000
	assert.ErrorContains(t, badPort.Validate(), "port")

	badTimeout := base
	badTimeout.CommandTimeoutSeconds = 0
	assert.ErrorContains(t, badTimeout.Validate(), "command_timeout_seconds")

	badPolicy := base
	badPolicy.TLSPolicy = "always"
	assert.ErrorContains(t, badPolicy.Validate(), "TLS policy")
}
