package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout bounds FindFirst operations. Default: BrowseTimeout.
	BrowseTimeout time.Duration

	// Interface selects one network interface by name. Empty means all
	// interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
	}
}

// Browser browses the local network for mail services.
type Browser struct {
	config BrowserConfig
}

// NewBrowser creates a browser.
func NewBrowser(config BrowserConfig) *Browser {
	if config.BrowseTimeout <= 0 {
		config.BrowseTimeout = BrowseTimeout
	}
	return &Browser{config: config}
}

// BrowseSubmission searches for mail submission agents. The returned
// channel carries one entry per service instance, with addresses from
// multiple interfaces aggregated; it closes when ctx is done.
func (b *Browser) BrowseSubmission(ctx context.Context) (<-chan *MailService, error) {
	return b.browse(ctx, ServiceTypeSubmission)
}

// BrowseSMTP searches for legacy SMTP relays.
func (b *Browser) BrowseSMTP(ctx context.Context) (<-chan *MailService, error) {
	return b.browse(ctx, ServiceTypeSMTP)
}

// FindFirst returns the first mail service found, browsing submission
// agents and legacy relays in parallel, bounded by the configured
// browse timeout.
func (b *Browser) FindFirst(ctx context.Context) (*MailService, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.BrowseTimeout)
	defer cancel()

	submission, err := b.browse(ctx, ServiceTypeSubmission)
	if err != nil {
		return nil, err
	}
	relay, err := b.browse(ctx, ServiceTypeSMTP)
	if err != nil {
		return nil, err
	}

	for {
		select {
		case svc, ok := <-submission:
			if ok {
				return svc, nil
			}
			submission = nil
		case svc, ok := <-relay:
			if ok {
				return svc, nil
			}
			relay = nil
		case <-ctx.Done():
			return nil, fmt.Errorf("no mail service found: %w", ctx.Err())
		}
	}
}

func (b *Browser) browse(ctx context.Context, serviceType string) (<-chan *MailService, error) {
	out := make(chan *MailService)

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	opts := b.browserOptions()

	// Aggregate per instance name: announcements arriving over several
	// interfaces merge into one entry, and an instance is forgotten
	// only when its last address disappears.
	go func() {
		defer close(out)

		services := make(map[string]*MailService)

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := entryToService(entry, serviceType)

				existing, found := services[svc.InstanceName]
				if found {
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
					continue
				}
				services[svc.InstanceName] = svc
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				if existing, found := services[entry.Instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, entry)
					if len(existing.Addresses) == 0 {
						delete(services, entry.Instance)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, serviceType, Domain, entries, removed, opts...)
	}()

	return out, nil
}

func (b *Browser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	return opts
}
