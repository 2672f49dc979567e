package cert

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTestRoot creates a self-signed CA certificate for provisioning tests.
func makeTestRoot(t *testing.T) *x509.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test Root CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func TestStaticProvisioner(t *testing.T) {
	root := makeTestRoot(t)
	pool := x509.NewCertPool()
	pool.AddCert(root)

	anchors, err := StaticProvisioner{Pool: pool}.Anchors()
	require.NoError(t, err)
	assert.False(t, anchors.Equal(x509.NewCertPool()))
}

func TestStaticProvisioner_Empty(t *testing.T) {
	_, err := StaticProvisioner{}.Anchors()
	assert.ErrorIs(t, err, ErrNoAnchors)

	_, err = StaticProvisioner{Pool: x509.NewCertPool()}.Anchors()
	assert.ErrorIs(t, err, ErrNoAnchors)
}

func TestFileProvisioner(t *testing.T) {
	root := makeTestRoot(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "roots.pem")
	require.NoError(t, WriteCertFile(path, root))

	anchors, err := FileProvisioner{Paths: []string{path}}.Anchors()
	require.NoError(t, err)
	assert.False(t, anchors.Equal(x509.NewCertPool()))
}

func TestFileProvisioner_SkipsUnparseableBlocks(t *testing.T) {
	root := makeTestRoot(t)
	dir := t.TempDir()

	// Garbage followed by a valid certificate: partial population is
	// not an error.
	data := append([]byte("-----BEGIN CERTIFICATE-----\nbm90IGEgY2VydA==\n-----END CERTIFICATE-----\n"), EncodeCertPEM(root)...)
	path := filepath.Join(dir, "mixed.pem")
	require.NoError(t, os.WriteFile(path, data, 0644))

	anchors, err := FileProvisioner{Paths: []string{path}}.Anchors()
	require.NoError(t, err)
	assert.False(t, anchors.Equal(x509.NewCertPool()))
}

func TestFileProvisioner_UnreadableFile(t *testing.T) {
	_, err := FileProvisioner{Paths: []string{filepath.Join(t.TempDir(), "missing.pem")}}.Anchors()
	assert.ErrorIs(t, err, ErrStoreOpen)
}

func TestFileProvisioner_NoUsableCertificates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.pem")
	require.NoError(t, os.WriteFile(path, []byte("not pem at all"), 0644))

	_, err := FileProvisioner{Paths: []string{path}}.Anchors()
	assert.ErrorIs(t, err, ErrNoAnchors)
}

func TestSystemProvisioner(t *testing.T) {
	anchors, err := SystemProvisioner{}.Anchors()
	if err != nil {
		t.Skipf("system trust store unavailable: %v", err)
	}
	assert.NotNil(t, anchors)
}

func TestPEMRoundTrip(t *testing.T) {
	root := makeTestRoot(t)
	path := filepath.Join(t.TempDir(), "root.pem")
	require.NoError(t, WriteCertFile(path, root))

	got, err := ReadCertFile(path)
	require.NoError(t, err)
	assert.Equal(t, root.Raw, got.Raw)

	_, err = DecodeCertPEM([]byte("garbage"))
	assert.ErrorIs(t, err, ErrInvalidPEM)
}
