// Package privacy masks client identifiers before they reach logs.
package privacy

import (
	"fmt"
	"net"
)

// AnonymizeIP zeroes the host part of an address: /24 for IPv4, /48 for IPv6.
// Returns "unknown" for empty input and "invalid" when the value does not parse.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}
	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}
	masked := parsed.Mask(net.CIDRMask(48, 128))
	return masked.String()
}
