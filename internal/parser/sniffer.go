package parser

import (
	"net"
	"strings"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"nscan/internal/model"
	"nscan/internal/netutil"
)

// DecodeFrame inspects one captured packet and classifies it into one of
// DHCPv4, DHCPv6, ICMPv6 neighbour discovery, NetBIOS name-service, or a
// generic IPv4/IPv6 frame, extracting the fields §4.3 names for each
// category. It never panics: any layer it cannot confidently interpret is
// skipped and it falls through to the generic case, or returns ok=false if
// there is nothing worth reporting. Every category but the generic one
// yields a single Observation describing the frame's sender; the generic
// case additionally yields one for the destination, unless that address is
// broadcast or multicast.
//
// This mirrors the original design's text-stream sniffer parser, adapted to
// consume gopacket's already-decoded layers instead of re-parsing tcpdump
// text output — the capture driver hands this function structured frames
// directly.
func DecodeFrame(pkt gopacket.Packet) ([]model.Observation, bool) {
	ethLayer := pkt.Layer(layers.LayerTypeEthernet)
	if ethLayer == nil {
		return nil, false
	}
	eth := ethLayer.(*layers.Ethernet)
	now := time.Now()

	if dhcp4 := pkt.Layer(layers.LayerTypeDHCPv4); dhcp4 != nil {
		if obs, ok := decodeDHCPv4(dhcp4.(*layers.DHCPv4), now); ok {
			return []model.Observation{obs}, true
		}
	}
	if dhcp6 := pkt.Layer(layers.LayerTypeDHCPv6); dhcp6 != nil {
		if obs, ok := decodeDHCPv6(dhcp6.(*layers.DHCPv6), eth, now); ok {
			return []model.Observation{obs}, true
		}
	}
	if icmp6 := pkt.Layer(layers.LayerTypeICMPv6NeighborAdvertisement); icmp6 != nil {
		if obs, ok := decodeNeighborAdvertisement(icmp6.(*layers.ICMPv6NeighborAdvertisement), eth, now); ok {
			return []model.Observation{obs}, true
		}
	}
	if icmp6 := pkt.Layer(layers.LayerTypeICMPv6NeighborSolicitation); icmp6 != nil {
		if obs, ok := decodeNeighborSolicitation(icmp6.(*layers.ICMPv6NeighborSolicitation), eth, now); ok {
			return []model.Observation{obs}, true
		}
	}
	if udp := pkt.Layer(layers.LayerTypeUDP); udp != nil {
		u := udp.(*layers.UDP)
		if u.DstPort == 137 || u.SrcPort == 137 {
			if obs, ok := decodeNetBIOS(pkt, eth, now); ok {
				return []model.Observation{obs}, true
			}
		}
	}

	return decodeGeneric(pkt, eth, now)
}

func decodeDHCPv4(dhcp *layers.DHCPv4, now time.Time) (model.Observation, bool) {
	mac, err := netutil.NormalizeMAC(dhcp.ClientHWAddr.String())
	if err != nil {
		return model.Observation{}, false
	}
	obs := model.Observation{Source: model.SourceCapture, Timestamp: now, MAC: mac}
	if dhcp.ClientIP != nil && !dhcp.ClientIP.IsUnspecified() {
		obs.IPv4 = dhcp.ClientIP.String()
	} else if dhcp.YourClientIP != nil && !dhcp.YourClientIP.IsUnspecified() {
		obs.IPv4 = dhcp.YourClientIP.String()
	}
	for _, opt := range dhcp.Options {
		switch opt.Type {
		case layers.DHCPOptHostname:
			obs.Hostname = string(opt.Data)
		case layers.DHCPOptClassID:
			obs.Manufacturer = vendorClassHint(string(opt.Data))
		case layers.DHCPOptRequestIP:
			if obs.IPv4 == "" && len(opt.Data) == 4 {
				obs.IPv4 = ipv4String(opt.Data)
			}
		}
	}
	if obs.MAC == "" && obs.IPv4 == "" {
		return model.Observation{}, false
	}
	return obs, true
}

func vendorClassHint(vendorClass string) string {
	// Vendor class identifiers are free-form; report the raw string as a
	// manufacturer hint for the classifier to interpret.
	return strings.TrimSpace(vendorClass)
}

func ipv4String(b []byte) string {
	if len(b) != 4 {
		return ""
	}
	return net.IPv4(b[0], b[1], b[2], b[3]).String()
}

func decodeDHCPv6(dhcp *layers.DHCPv6, eth *layers.Ethernet, now time.Time) (model.Observation, bool) {
	mac, err := netutil.NormalizeMAC(eth.SrcMAC.String())
	if err != nil {
		return model.Observation{}, false
	}
	obs := model.Observation{Source: model.SourceCapture, Timestamp: now, MAC: mac}
	const dhcpv6OptFQDN = 39 // RFC 4704, not named in gopacket/layers
	for _, opt := range dhcp.Options {
		if uint16(opt.Code) == dhcpv6OptFQDN && len(opt.Data) > 0 {
			obs.FQDN = string(opt.Data)
		}
	}
	if obs.FQDN == "" {
		return model.Observation{}, false
	}
	return obs, true
}

func decodeNeighborAdvertisement(na *layers.ICMPv6NeighborAdvertisement, eth *layers.Ethernet, now time.Time) (model.Observation, bool) {
	mac, err := netutil.NormalizeMAC(eth.SrcMAC.String())
	if err != nil {
		return model.Observation{}, false
	}
	addr, err := netutil.ClassifyIPv6(na.TargetAddress.String())
	if err != nil {
		return model.Observation{}, false
	}
	return model.Observation{
		Source:    model.SourceCapture,
		Timestamp: now,
		MAC:       mac,
		IPv6:      []model.IPv6Address{addr},
	}, true
}

func decodeNeighborSolicitation(ns *layers.ICMPv6NeighborSolicitation, eth *layers.Ethernet, now time.Time) (model.Observation, bool) {
	mac, err := netutil.NormalizeMAC(eth.SrcMAC.String())
	if err != nil {
		return model.Observation{}, false
	}
	addr, err := netutil.ClassifyIPv6(ns.TargetAddress.String())
	if err != nil {
		return model.Observation{}, false
	}
	return model.Observation{
		Source:    model.SourceCapture,
		Timestamp: now,
		MAC:       mac,
		IPv6:      []model.IPv6Address{addr},
	}, true
}

func decodeNetBIOS(pkt gopacket.Packet, eth *layers.Ethernet, now time.Time) (model.Observation, bool) {
	app := pkt.ApplicationLayer()
	if app == nil {
		return model.Observation{}, false
	}
	name := extractNetBIOSName(app.Payload())
	if name == "" {
		return model.Observation{}, false
	}
	mac, err := netutil.NormalizeMAC(eth.SrcMAC.String())
	if err != nil {
		return model.Observation{}, false
	}
	obs := model.Observation{
		Source:    model.SourceCapture,
		Timestamp: now,
		MAC:       mac,
		Hostname:  name,
	}
	if netLayer := pkt.Layer(layers.LayerTypeIPv4); netLayer != nil {
		obs.IPv4 = netLayer.(*layers.IPv4).SrcIP.String()
	}
	return obs, true
}

// extractNetBIOSName performs a best-effort extraction of the encoded
// NetBIOS name from a name-service payload without attempting full
// half-ASCII decompression; malformed payloads yield an empty string.
func extractNetBIOSName(payload []byte) string {
	if len(payload) < 45 {
		return ""
	}
	encoded := payload[13:45]
	var sb strings.Builder
	for i := 0; i+1 < len(encoded); i += 2 {
		hi := encoded[i] - 'A'
		lo := encoded[i+1] - 'A'
		if hi > 15 || lo > 15 {
			return ""
		}
		ch := hi<<4 | lo
		if ch == 0x20 {
			continue
		}
		sb.WriteByte(ch)
	}
	return strings.TrimSpace(sb.String())
}

// decodeGeneric builds an Observation for the frame's sender and, unless
// the destination is broadcast or multicast, a second one for its
// destination — a quiet device that's only ever addressed, never the
// sender, would otherwise never appear in passive capture at all.
func decodeGeneric(pkt gopacket.Packet, eth *layers.Ethernet, now time.Time) ([]model.Observation, bool) {
	var srcIPv4, dstIPv4 string
	var srcIPv6, dstIPv6 []model.IPv6Address

	if v4 := pkt.Layer(layers.LayerTypeIPv4); v4 != nil {
		ip := v4.(*layers.IPv4)
		srcIPv4 = ip.SrcIP.String()
		dstIPv4 = ip.DstIP.String()
	}
	if v6 := pkt.Layer(layers.LayerTypeIPv6); v6 != nil {
		ip := v6.(*layers.IPv6)
		if addr, err := netutil.ClassifyIPv6(ip.SrcIP.String()); err == nil {
			srcIPv6 = []model.IPv6Address{addr}
		}
		if addr, err := netutil.ClassifyIPv6(ip.DstIP.String()); err == nil {
			dstIPv6 = []model.IPv6Address{addr}
		}
	}

	var out []model.Observation
	if srcMAC, err := netutil.NormalizeMAC(eth.SrcMAC.String()); err == nil && (srcIPv4 != "" || len(srcIPv6) > 0) {
		out = append(out, model.Observation{
			Source: model.SourceCapture, Timestamp: now,
			MAC: srcMAC, IPv4: srcIPv4, IPv6: srcIPv6,
		})
	}
	if dstMAC, err := netutil.NormalizeMAC(eth.DstMAC.String()); err == nil &&
		(dstIPv4 != "" || len(dstIPv6) > 0) &&
		!isBroadcastOrMulticast(eth.DstMAC, dstIPv4) {
		out = append(out, model.Observation{
			Source: model.SourceCapture, Timestamp: now,
			MAC: dstMAC, IPv4: dstIPv4, IPv6: dstIPv6,
		})
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// isBroadcastOrMulticast reports whether a destination address names every
// host on the segment rather than one specific device.
func isBroadcastOrMulticast(mac net.HardwareAddr, ipv4 string) bool {
	if len(mac) > 0 && mac[0]&0x01 != 0 {
		return true // multicast bit of the first octet, also set for ff:ff:ff:ff:ff:ff
	}
	if ipv4 == "255.255.255.255" {
		return true
	}
	if ip := net.ParseIP(ipv4); ip != nil && ip.IsMulticast() {
		return true
	}
	return false
}
