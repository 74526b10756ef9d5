package parser

import (
	"net"
	"testing"
)

func TestParseSSDPResponse(t *testing.T) {
	payload := "HTTP/1.1 200 OK\r\n" +
		"Location: http://192.168.1.50:80/desc.xml\r\n" +
		"Server: Linux/3.10 UPnP/1.0\r\n" +
		"ST: urn:schemas-upnp-org:device:Printer:1\r\n" +
		"USN: uuid:abcd-1234::urn:schemas-upnp-org:device:Printer:1\r\n\r\n"

	obs, ok := ParseSSDP([]byte(payload), net.ParseIP("192.168.1.50"))
	if !ok {
		t.Fatal("expected ParseSSDP to succeed")
	}
	if obs.OSHint != "Linux/3.10 UPnP/1.0" {
		t.Errorf("OSHint = %q", obs.OSHint)
	}
	if obs.IPv4 != "192.168.1.50" {
		t.Errorf("IPv4 = %q, want the Location header's host", obs.IPv4)
	}
	if !obs.HasIdentifier() {
		t.Error("expected HasIdentifier() to be true")
	}
	found := false
	for _, s := range obs.ServiceTypes {
		if s == "urn:schemas-upnp-org:device:Printer:1" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ST service type in %v", obs.ServiceTypes)
	}
}

func TestParseSSDPFallsBackToSenderAddress(t *testing.T) {
	payload := "HTTP/1.1 200 OK\r\n" +
		"Server: Linux/3.10 UPnP/1.0\r\n" +
		"ST: urn:schemas-upnp-org:device:Printer:1\r\n\r\n"

	obs, ok := ParseSSDP([]byte(payload), net.ParseIP("10.0.0.9"))
	if !ok {
		t.Fatal("expected ParseSSDP to succeed")
	}
	if obs.IPv4 != "10.0.0.9" {
		t.Errorf("IPv4 = %q, want the UDP sender address", obs.IPv4)
	}
}

func TestParseSSDPRejectsNonResponse(t *testing.T) {
	if _, ok := ParseSSDP([]byte("GARBAGE\r\n\r\n"), net.ParseIP("10.0.0.1")); ok {
		t.Error("expected ParseSSDP to reject a non-HTTP/NOTIFY first line")
	}
}
