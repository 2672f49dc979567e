package discovery

import (
	"net"
	"testing"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
)

func TestEntryToService(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{
			Instance: "Office Mail",
			Service:  ServiceTypeSubmission,
			Domain:   Domain,
		},
		HostName: "mail.local.",
		Port:     587,
		Text:     []string{"path=/", "version=1"},
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.10")},
		AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
	}

	svc := entryToService(entry, ServiceTypeSubmission)
	assert.Equal(t, "Office Mail", svc.InstanceName)
	assert.Equal(t, "mail.local.", svc.Host)
	assert.Equal(t, 587, svc.Port)
	assert.Equal(t, []string{"192.168.1.10", "fe80::1"}, svc.Addresses)
	assert.Equal(t, ServiceTypeSubmission, svc.ServiceType)
	assert.Equal(t, "1", svc.TXTValue("version"))
	assert.Empty(t, svc.TXTValue("absent"))
}

func TestMergeAddresses(t *testing.T) {
	merged := mergeAddresses(
		[]string{"192.168.1.10", "fe80::1"},
		[]string{"fe80::1", "10.0.0.5"},
	)
	assert.Equal(t, []string{"192.168.1.10", "fe80::1", "10.0.0.5"}, merged)
}

func TestRemoveAddresses(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.10")},
	}

	kept := removeAddresses([]string{"192.168.1.10", "fe80::1"}, entry)
	assert.Equal(t, []string{"fe80::1"}, kept)

	kept = removeAddresses(kept, &zeroconf.ServiceEntry{
		AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
	})
	assert.Empty(t, kept)
}
