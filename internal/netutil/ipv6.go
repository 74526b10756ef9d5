package netutil

import (
	"fmt"
	"net"
	"strings"

	"nscan/internal/model"
)

// ClassifyIPv6 strips the zone identifier from raw, validates the remaining
// textual address, and classifies it per §4.1: fe80::/10 link-local,
// fc00::/7 unique-local, ff00::/8 multicast, ::1 loopback, the first 16-bit
// group in 0x2000..0x3fff global, otherwise unknown.
func ClassifyIPv6(raw string) (model.IPv6Address, error) {
	addr, scope := splitZone(raw)

	ip := net.ParseIP(addr)
	if ip == nil || ip.To4() != nil || ip.To16() == nil {
		return model.IPv6Address{}, fmt.Errorf("classify ipv6: %q is not a valid IPv6 address", raw)
	}
	ip16 := ip.To16()

	return model.IPv6Address{
		Addr:  addr,
		Type:  classifyIPv6Bits(ip16),
		Scope: scope,
	}, nil
}

func splitZone(raw string) (addr, scope string) {
	if idx := strings.IndexByte(raw, '%'); idx >= 0 {
		return raw[:idx], raw[idx+1:]
	}
	return raw, ""
}

func classifyIPv6Bits(ip16 net.IP) model.IPv6Type {
	if ip16.IsLoopback() {
		return model.IPv6Loopback
	}
	first := ip16[0]
	switch {
	case first == 0xff:
		return model.IPv6Multicast
	case first&0xfe == 0xfc:
		return model.IPv6UniqueLocal
	case first == 0xfe && ip16[1]&0xc0 == 0x80:
		return model.IPv6LinkLocal
	}
	group0 := uint16(ip16[0])<<8 | uint16(ip16[1])
	if group0 >= 0x2000 && group0 <= 0x3fff {
		return model.IPv6Global
	}
	return model.IPv6Unknown
}

// SameIPv6 compares two addresses textually, ignoring letter case, with the
// zone stripped, e.g. "fe80::1%eth0" and "fe80::1" are the same address.
func SameIPv6(a, b string) bool {
	addrA, _ := splitZone(a)
	addrB, _ := splitZone(b)
	return strings.EqualFold(addrA, addrB)
}
