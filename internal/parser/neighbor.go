// Package parser implements pure, total text/wire parsers for the external
// tools the discovery pipeline depends on. No parser here performs I/O;
// each takes bytes (or lines) in and emits model.Observation values out, and
// none panics on malformed input.
package parser

import (
	"regexp"
	"strings"
	"time"

	"nscan/internal/model"
	"nscan/internal/netutil"
)

var ipv4NeighborLine = regexp.MustCompile(`^(\d{1,3}(?:\.\d{1,3}){3})\s+.*?([0-9a-fA-F]{1,2}(?:[:-][0-9a-fA-F]{1,2}){5})(.*)$`)

// ParseIPv4Neighbors parses platform-flavoured `ip neigh`/`arp -a` output.
// Lines whose state is "incomplete" or whose MAC is the broadcast address
// are discarded. Unparseable lines yield no Observation.
func ParseIPv4Neighbors(output string) []model.Observation {
	now := time.Now()
	var obs []model.Observation
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := ipv4NeighborLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ipv4, rawMAC, rest := m[1], m[2], m[3]

		if strings.Contains(strings.ToLower(rest), "incomplete") {
			continue
		}
		mac, err := netutil.NormalizeMAC(rawMAC)
		if err != nil {
			continue
		}
		if netutil.IsBroadcastMAC(mac) {
			continue
		}

		obs = append(obs, model.Observation{
			Source:    model.SourceARP,
			Timestamp: now,
			MAC:       mac,
			IPv4:      ipv4,
		})
	}
	return obs
}

var ipv6NeighborLine = regexp.MustCompile(`^([0-9a-fA-F:]+(?:%[\w.]+)?)\s+.*?([0-9a-fA-F]{1,2}(?::[0-9a-fA-F]{1,2}){5})\s+(\S+)\s*$`)

// ParseIPv6Neighbors parses platform-flavoured `ip -6 neigh` output. Entries
// in FAILED state are discarded.
func ParseIPv6Neighbors(output string) []model.Observation {
	now := time.Now()
	var obs []model.Observation
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := ipv6NeighborLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		rawAddr, rawMAC, state := m[1], m[2], m[3]

		if strings.EqualFold(state, "FAILED") {
			continue
		}
		mac, err := netutil.NormalizeMAC(rawMAC)
		if err != nil {
			continue
		}
		addr, err := netutil.ClassifyIPv6(rawAddr)
		if err != nil {
			continue
		}

		obs = append(obs, model.Observation{
			Source:    model.SourceNDP,
			Timestamp: now,
			MAC:       mac,
			IPv6:      []model.IPv6Address{addr},
		})
	}
	return obs
}
