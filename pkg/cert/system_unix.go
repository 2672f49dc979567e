//go:build !windows

package cert

import (
	"crypto/x509"
	"fmt"
)

// Anchors returns the pool built from the platform's compiled-in
// default trust path set.
func (SystemProvisioner) Anchors() (*x509.CertPool, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDefaultPaths, err)
	}
	if pool.Equal(x509.NewCertPool()) {
		return nil, ErrNoAnchors
	}
	return pool, nil
}
