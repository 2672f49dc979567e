package cert

import (
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// Trust provisioning errors.
var (
	// ErrStoreOpen indicates the platform certificate store could not
	// be opened at all. Partial population (individual certificates
	// failing to parse) is not an error.
	ErrStoreOpen = errors.New("cannot open system certificate store")

	// ErrDefaultPaths indicates the default trust paths could not be
	// loaded.
	ErrDefaultPaths = errors.New("cannot load default trust paths")

	// ErrNoAnchors indicates provisioning produced an empty trust set.
	// A handshake must be refused rather than attempted without anchors.
	ErrNoAnchors = errors.New("trust store is empty")
)

// Provisioner populates the set of trusted root certificates for one
// TLS upgrade attempt. Implementations must return a non-empty pool or
// an error; the handshake negotiator refuses to proceed otherwise.
type Provisioner interface {
	// Anchors returns the pool of trusted root certificates.
	Anchors() (*x509.CertPool, error)
}

// SystemProvisioner loads trust anchors from the operating system.
// The mechanism is platform-dependent: see system_windows.go and
// system_unix.go.
type SystemProvisioner struct{}

// StaticProvisioner serves a fixed, caller-assembled pool. Used for
// pinned roots and throughout the tests.
type StaticProvisioner struct {
	// Pool is the pool to serve. Must be non-nil and non-empty.
	Pool *x509.CertPool
}

// Anchors returns the configured pool, or ErrNoAnchors when it is nil
// or empty.
func (p StaticProvisioner) Anchors() (*x509.CertPool, error) {
	if p.Pool == nil || p.Pool.Equal(x509.NewCertPool()) {
		return nil, ErrNoAnchors
	}
	return p.Pool, nil
}

// FileProvisioner loads trust anchors from PEM files. Unparseable
// blocks within a file are skipped; an unreadable file or an empty
// resulting pool is an error.
type FileProvisioner struct {
	// Paths lists the PEM files to load.
	Paths []string
}

// Anchors reads every configured file into a fresh pool.
func (p FileProvisioner) Anchors() (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	for _, path := range p.Paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrStoreOpen, path, err)
		}
		// AppendCertsFromPEM skips blocks that fail to parse.
		pool.AppendCertsFromPEM(data)
	}
	if pool.Equal(x509.NewCertPool()) {
		return nil, fmt.Errorf("%w: no usable certificates in %d file(s)", ErrNoAnchors, len(p.Paths))
	}
	return pool, nil
}

// Compile-time interface satisfaction checks.
var (
	_ Provisioner = SystemProvisioner{}
	_ Provisioner = StaticProvisioner{}
	_ Provisioner = FileProvisioner{}
)
