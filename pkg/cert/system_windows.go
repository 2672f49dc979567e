//go:build windows

package cert

import (
	"crypto/x509"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Anchors enumerates the Windows ROOT system store and adds every
// certificate that parses. Entries that fail to parse are skipped;
// only failure to open the store itself is reported.
func (SystemProvisioner) Anchors() (*x509.CertPool, error) {
	storeName, err := windows.UTF16PtrFromString("ROOT")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreOpen, err)
	}

	store, err := windows.CertOpenSystemStore(0, storeName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreOpen, err)
	}
	defer windows.CertCloseStore(store, 0)

	pool := x509.NewCertPool()
	var certCtx *windows.CertContext
	for {
		certCtx, err = windows.CertEnumCertificatesInStore(store, certCtx)
		if err != nil || certCtx == nil {
			break
		}
		// The encoded certificate lives in store-owned memory; copy it
		// out before handing it to the parser.
		der := unsafe.Slice(certCtx.EncodedCert, certCtx.Length)
		buf := make([]byte, len(der))
		copy(buf, der)

		if c, parseErr := x509.ParseCertificate(buf); parseErr == nil {
			pool.AddCert(c)
		}
	}

	if pool.Equal(x509.NewCertPool()) {
		return nil, ErrNoAnchors
	}
	return pool, nil
}
