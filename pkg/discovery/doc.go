// Package discovery finds mail services on the local network via
// DNS-SD (mDNS). Submission agents announce themselves under
// "_submission._tcp" and legacy relays under "_smtp._tcp"; the browser
// aggregates announcements from multiple interfaces into one entry per
// service instance.
package discovery
