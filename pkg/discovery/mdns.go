package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"

	"github.com/gesellix/spotify-core/pkg/models"
)

// Logger is the minimal logging seam every long-lived component in
// this repository accepts.
type Logger interface {
	Printf(format string, v ...interface{})
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}

// ConnectDiscovery browses the LAN for Spotify Connect receivers.
type ConnectDiscovery struct {
	timeout time.Duration
	logger  Logger
}

// NewConnectDiscovery creates a discovery service with the given
// per-query timeout. A nil logger discards all log output.
func NewConnectDiscovery(timeout time.Duration, logger Logger) *ConnectDiscovery {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = discardLogger{}
	}
	return &ConnectDiscovery{timeout: timeout, logger: logger}
}

// DiscoverDevices runs one mDNS browse pass and returns every Connect
// receiver that answered within the configured timeout.
func (d *ConnectDiscovery) DiscoverDevices(ctx context.Context) ([]*models.ConnectDevice, error) {
	devices := make([]*models.ConnectDevice, 0)

	entries := make(chan *mdns.ServiceEntry, 100)
	timeoutCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	go func() {
		defer close(entries)

		d.logger.Printf("discovery: browsing for %s%s (timeout %s)", connectServiceType, connectDomain, d.timeout)

		err := mdns.Query(&mdns.QueryParam{
			Service:     connectServiceType,
			Domain:      connectDomain,
			Timeout:     d.timeout,
			Entries:     entries,
			DisableIPv6: true,
			Interface:   d.ipv4Interface(),
		})
		if err != nil {
			d.logger.Printf("discovery: IPv4-only mDNS query failed (%v), retrying without interface restriction", err)
			if err := mdns.Query(&mdns.QueryParam{
				Service: connectServiceType,
				Domain:  connectDomain,
				Timeout: d.timeout,
				Entries: entries,
			}); err != nil {
				d.logger.Printf("discovery: mDNS query failed: %v", err)
			}
		}
	}()

	for {
		select {
		case <-timeoutCtx.Done():
			return devices, nil
		case entry, ok := <-entries:
			if !ok {
				d.logger.Printf("discovery: browse finished, found %d device(s)", len(devices))
				return devices, nil
			}
			if !strings.Contains(entry.Name, connectServiceType) {
				continue
			}
			if device := d.serviceEntryToDevice(entry); device != nil {
				devices = append(devices, device)
			}
		}
	}
}

func (d *ConnectDiscovery) serviceEntryToDevice(entry *mdns.ServiceEntry) *models.ConnectDevice {
	if entry == nil {
		return nil
	}

	var host string
	switch {
	case entry.AddrV4 != nil:
		host = entry.AddrV4.String()
	case entry.AddrV6 != nil:
		host = entry.AddrV6.String()
	default:
		ips, err := net.LookupIP(entry.Host)
		if err != nil || len(ips) == 0 {
			d.logger.Printf("discovery: could not resolve host %q: %v", entry.Host, err)
			return nil
		}
		for _, ip := range ips {
			if ip.To4() != nil {
				host = ip.String()
				break
			}
		}
		if host == "" {
			host = ips[0].String()
		}
	}
	if host == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = 57621
	}

	name := entry.Name
	if name == "" {
		name = fmt.Sprintf("spotify-connect-%s", host)
	}
	name = strings.TrimSuffix(name, "."+connectServiceType+"."+connectDomain)
	name = strings.ReplaceAll(name, `\ `, " ")
	name = strings.ReplaceAll(name, `\.`, ".")
	name = strings.ReplaceAll(name, `\\`, `\`)

	return &models.ConnectDevice{
		Host:     host,
		Port:     port,
		Name:     name,
		Location: fmt.Sprintf("http://%s:%d/", host, port),
		LastSeen: time.Now(),
	}
}

// ipv4Interface returns the first non-loopback, up interface with an
// IPv4 address, avoiding the "no route to host" failures IPv6-capable
// interfaces can trigger in hashicorp/mdns.
func (d *ConnectDiscovery) ipv4Interface() *net.Interface {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	for i := range interfaces {
		iface := interfaces[i]
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagPointToPoint != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipNet, ok := addr.(*net.IPNet); ok && ipNet.IP.To4() != nil && !ipNet.IP.IsLoopback() {
				return &iface
			}
		}
	}
	return nil
}
