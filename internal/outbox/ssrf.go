package outbox

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

const dnsLookupTimeout = 2 * time.Second

// validateDestination rejects any webhook URL that could be used to
// reach an internal service (spec.md §5 SSRF protection on outbound
// webhook delivery): only http/https, no loopback/private/link-local/
// multicast/CGNAT ranges, and no localhost/.local/.internal hostnames.
// A hostname that resolves is additionally checked post-DNS, since a
// public-looking name can still resolve to a private address.
func validateDestination(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("outbox: invalid webhook url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("outbox: webhook url must use http or https")
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("outbox: webhook url must have a host")
	}

	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return fmt.Errorf("outbox: webhook url cannot target a private ip address")
		}
		return nil
	}

	if host == "localhost" || strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return fmt.Errorf("outbox: webhook url cannot target an internal hostname")
	}

	lookupCtx, cancel := context.WithTimeout(ctx, dnsLookupTimeout)
	defer cancel()
	addrs, err := net.DefaultResolver.LookupIPAddr(lookupCtx, host)
	if err != nil {
		return fmt.Errorf("outbox: failed to resolve webhook url: %w", err)
	}
	for _, addr := range addrs {
		if isPrivateIP(addr.IP) {
			return fmt.Errorf("outbox: webhook url resolves to a private ip address")
		}
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		switch {
		case ip4[0] == 10:
			return true
		case ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31:
			return true
		case ip4[0] == 192 && ip4[1] == 168:
			return true
		case ip4[0] == 127:
			return true
		case ip4[0] == 169 && ip4[1] == 254:
			return true
		case ip4[0] == 0:
			return true
		case ip4[0] == 100 && ip4[1]&0b1100_0000 == 64:
			return true
		case ip4[0] == 192 && ip4[1] == 0 && ip4[2] == 0:
			return true
		case ip4[0] == 198 && (ip4[1] == 18 || ip4[1] == 19):
			return true
		case ip4[0] >= 224:
			return true
		}
		return false
	}

	return ip.IsLoopback() || ip.IsUnspecified() || ip.IsMulticast() || isULA(ip) || isLinkLocal(ip)
}

func isULA(ip net.IP) bool {
	return len(ip) == net.IPv6len && ip[0]&0xfe == 0xfc
}

func isLinkLocal(ip net.IP) bool {
	return ip.IsLinkLocalUnicast()
}
