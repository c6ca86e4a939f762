// Package ipnet decides whether a client address falls inside the CIDR-style
// range a session is bound to.
package ipnet

import "net/netip"

// InRange reports whether addr (IPv4 dotted-quad) lies inside network
// ("a.b.c.d/len"). Malformed input of any kind returns false: a broken
// stored range must never behave as "allow all". A /32 range matches
// exactly one host.
func InRange(addr, network string) bool {
	ip, err := netip.ParseAddr(addr)
	if err != nil || !ip.Is4() {
		return false
	}

	prefix, err := netip.ParsePrefix(network)
	if err != nil || !prefix.Addr().Is4() {
		return false
	}

	return prefix.Masked().Contains(ip)
}
