package checker

import "net"

// edgeNetworkRanges lists announced prefixes of the edge networks we treat
// as a "behind a CDN" signal. The table is best-effort: providers add
// ranges over time, so a miss means "not detected", never "exposed".
var edgeNetworkRanges = buildEdgeRanges([]string{
	// Cloudflare (https://www.cloudflare.com/ips/)
	"173.245.48.0/20",
	"103.21.244.0/22",
	"103.22.200.0/22",
	"103.31.4.0/22",
	"141.101.64.0/18",
	"108.162.192.0/18",
	"190.93.240.0/20",
	"188.114.96.0/20",
	"197.234.240.0/22",
	"198.41.128.0/17",
	"162.158.0.0/15",
	"104.16.0.0/13",
	"104.24.0.0/14",
	"172.64.0.0/13",
	"131.0.72.0/22",
	"2400:cb00::/32",
	"2606:4700::/32",
	"2803:f800::/32",
	"2405:b500::/32",
	"2405:8100::/32",
	"2a06:98c0::/29",
	"2c0f:f248::/32",
	// Fastly
	"151.101.0.0/16",
	"199.232.0.0/16",
})

func buildEdgeRanges(cidrs []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		if _, n, err := net.ParseCIDR(cidr); err == nil {
			nets = append(nets, n)
		}
	}
	return nets
}

// IsEdgeIP reports whether ip falls inside a known edge-network prefix.
func IsEdgeIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, n := range edgeNetworkRanges {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// edgeHeaderNames are response headers whose presence indicates the
// response was served through an edge network.
var edgeHeaderNames = []string{
	"Cf-Ray",
	"Cf-Cache-Status",
	"X-Amz-Cf-Id",
	"X-Served-By",
	"X-Fastly-Request-Id",
}
