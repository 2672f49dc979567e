package discovery

import (
	"strings"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// DNS-SD service types for mail submission and relay (RFC 6186
// describes the submission service; "_smtp._tcp" covers legacy relays).
const (
	ServiceTypeSubmission = "_submission._tcp"
	ServiceTypeSMTP       = "_smtp._tcp"

	// Domain is the DNS-SD browsing domain.
	Domain = "local."

	// BrowseTimeout is the default timeout for browse operations.
	BrowseTimeout = 10 * time.Second
)

// MailService describes one discovered mail service instance.
type MailService struct {
	// InstanceName is the DNS-SD instance name.
	InstanceName string

	// Host is the advertised host name.
	Host string

	// Port is the advertised port.
	Port int

	// Addresses holds the resolved IPv4 and IPv6 addresses, in
	// discovery order.
	Addresses []string

	// ServiceType is the DNS-SD type the instance was found under.
	ServiceType string

	// TXT holds the raw TXT records of the announcement.
	TXT []string
}

// TXTValue returns the value of a "key=value" TXT record, or "" when
// the key is absent.
func (s *MailService) TXTValue(key string) string {
	prefix := key + "="
	for _, record := range s.TXT {
		if strings.HasPrefix(record, prefix) {
			return record[len(prefix):]
		}
	}
	return ""
}

// entryToService converts a zeroconf entry, collecting all resolved
// addresses.
func entryToService(entry *zeroconf.ServiceEntry, serviceType string) *MailService {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return &MailService{
		InstanceName: entry.Instance,
		Host:         entry.HostName,
		Port:         entry.Port,
		Addresses:    addrs,
		ServiceType:  serviceType,
		TXT:          entry.Text,
	}
}

// mergeAddresses combines two address lists, preserving order and
// dropping duplicates.
func mergeAddresses(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, addr := range existing {
		seen[addr] = struct{}{}
	}
	for _, addr := range incoming {
		if _, ok := seen[addr]; !ok {
			existing = append(existing, addr)
			seen[addr] = struct{}{}
		}
	}
	return existing
}

// removeAddresses drops the entry's addresses from the list, used when
// an interface announcement disappears.
func removeAddresses(existing []string, entry *zeroconf.ServiceEntry) []string {
	gone := make(map[string]struct{}, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		gone[ip.String()] = struct{}{}
	}
	for _, ip := range entry.AddrIPv6 {
		gone[ip.String()] = struct{}{}
	}

	kept := existing[:0]
	for _, addr := range existing {
		if _, ok := gone[addr]; !ok {
			kept = append(kept, addr)
		}
	}
	return kept
}
