package driver

import (
	"context"
	"log"
	"net"
	"time"

	"golang.org/x/net/dns/dnsmessage"

	"nscan/internal/model"
	"nscan/internal/parser"
)

var mdnsServiceTypes = []string{
	"_services._dns-sd._udp.local.",
	"_http._tcp.local.",
	"_printer._tcp.local.",
	"_ipp._tcp.local.",
	"_airplay._tcp.local.",
	"_workstation._tcp.local.",
	"_ssh._tcp.local.",
}

const mdnsTimeout = 4 * time.Second

// MDNSDriver sends PTR queries for a curated set of service types over
// multicast DNS and collects responses for mdnsTimeout before completing.
type MDNSDriver struct {
	conn *net.UDPConn
}

func (d *MDNSDriver) Name() string { return "mdns" }

func (d *MDNSDriver) Start(ctx context.Context, cfg Config, out chan<- model.Observation) error {
	group := &net.UDPAddr{IP: net.IPv4(224, 0, 0, 251), Port: 5353}
	conn, err := net.ListenMulticastUDP("udp4", nil, group)
	if err != nil {
		log.Printf("mdns: listen failed (non-fatal): %v", err)
		return nil
	}
	d.conn = conn
	defer func() { d.conn = nil; conn.Close() }()

	for _, svc := range mdnsServiceTypes {
		if query, err := buildMDNSQuery(svc); err == nil {
			_, _ = conn.WriteToUDP(query, group)
		}
	}

	deadline := time.Now().Add(mdnsTimeout)
	_ = conn.SetReadDeadline(deadline)
	buf := make([]byte, 9000)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if time.Now().After(deadline) {
			return nil
		}
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			return nil
		}
		for _, obs := range parser.ParseMDNS(buf[:n]) {
			select {
			case out <- obs:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (d *MDNSDriver) Stop() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

func buildMDNSQuery(serviceType string) ([]byte, error) {
	name, err := dnsmessage.NewName(serviceType)
	if err != nil {
		return nil, err
	}
	msg := dnsmessage.Message{
		Header: dnsmessage.Header{ID: 0, Response: false},
		Questions: []dnsmessage.Question{{
			Name:  name,
			Type:  dnsmessage.TypePTR,
			Class: dnsmessage.ClassINET,
		}},
	}
	return msg.Pack()
}
