package parser

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func buildIPv4Frame(t *testing.T, srcMAC, dstMAC net.HardwareAddr, srcIP, dstIP net.IP) gopacket.Packet {
	t.Helper()
	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4}
	ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolUDP, SrcIP: srcIP, DstIP: dstIP}
	udp := &layers.UDP{SrcPort: 12345, DstPort: 53}
	_ = udp.SetNetworkLayerForChecksum(ip)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload([]byte("x"))); err != nil {
		t.Fatalf("serialize frame: %v", err)
	}
	return gopacket.NewPacket(buf.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}

func TestDecodeGenericEmitsBothSrcAndDst(t *testing.T) {
	srcMAC, _ := net.ParseMAC("aa:bb:cc:dd:ee:ff")
	dstMAC, _ := net.ParseMAC("00:22:33:44:55:66")
	pkt := buildIPv4Frame(t, srcMAC, dstMAC, net.ParseIP("192.168.1.10"), net.ParseIP("192.168.1.20"))

	obs, ok := DecodeFrame(pkt)
	if !ok {
		t.Fatal("expected DecodeFrame to succeed")
	}
	if len(obs) != 2 {
		t.Fatalf("len(obs) = %d, want 2 (src and dst)", len(obs))
	}
	if obs[0].MAC != "AA:BB:CC:DD:EE:FF" || obs[0].IPv4 != "192.168.1.10" {
		t.Errorf("src observation = %+v", obs[0])
	}
	if obs[1].MAC != "00:22:33:44:55:66" || obs[1].IPv4 != "192.168.1.20" {
		t.Errorf("dst observation = %+v", obs[1])
	}
}

func TestDecodeGenericSuppressesBroadcastDestination(t *testing.T) {
	srcMAC, _ := net.ParseMAC("aa:bb:cc:dd:ee:ff")
	dstMAC, _ := net.ParseMAC("ff:ff:ff:ff:ff:ff")
	pkt := buildIPv4Frame(t, srcMAC, dstMAC, net.ParseIP("192.168.1.10"), net.ParseIP("255.255.255.255"))

	obs, ok := DecodeFrame(pkt)
	if !ok {
		t.Fatal("expected DecodeFrame to succeed")
	}
	if len(obs) != 1 {
		t.Fatalf("len(obs) = %d, want 1 (broadcast dst suppressed)", len(obs))
	}
	if obs[0].MAC != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("unexpected surviving observation: %+v", obs[0])
	}
}

func TestDecodeGenericSuppressesMulticastDestination(t *testing.T) {
	srcMAC, _ := net.ParseMAC("aa:bb:cc:dd:ee:ff")
	dstMAC, _ := net.ParseMAC("01:00:5e:00:00:fb")
	pkt := buildIPv4Frame(t, srcMAC, dstMAC, net.ParseIP("192.168.1.10"), net.ParseIP("224.0.0.251"))

	obs, ok := DecodeFrame(pkt)
	if !ok {
		t.Fatal("expected DecodeFrame to succeed")
	}
	if len(obs) != 1 {
		t.Fatalf("len(obs) = %d, want 1 (multicast dst suppressed)", len(obs))
	}
}
