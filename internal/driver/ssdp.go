package driver

import (
	"context"
	"log"
	"net"
	"time"

	"nscan/internal/model"
	"nscan/internal/parser"
)

const ssdpTimeout = 4 * time.Second

const ssdpSearch = "M-SEARCH * HTTP/1.1\r\n" +
	"HOST: 239.255.255.250:1900\r\n" +
	"MAN: \"ssdp:discover\"\r\n" +
	"MX: 2\r\n" +
	"ST: ssdp:all\r\n\r\n"

// SSDPDriver sends an M-SEARCH request over the UPnP multicast group and
// parses responses for ssdpTimeout.
type SSDPDriver struct {
	conn *net.UDPConn
}

func (d *SSDPDriver) Name() string { return "ssdp" }

func (d *SSDPDriver) Start(ctx context.Context, cfg Config, out chan<- model.Observation) error {
	group := &net.UDPAddr{IP: net.IPv4(239, 255, 255, 250), Port: 1900}
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		log.Printf("ssdp: listen failed (non-fatal): %v", err)
		return nil
	}
	d.conn = conn
	defer func() { d.conn = nil; conn.Close() }()

	if _, err := conn.WriteToUDP([]byte(ssdpSearch), group); err != nil {
		log.Printf("ssdp: send M-SEARCH failed (non-fatal): %v", err)
		return nil
	}

	deadline := time.Now().Add(ssdpTimeout)
	_ = conn.SetReadDeadline(deadline)
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if time.Now().After(deadline) {
			return nil
		}
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return nil
		}
		if obs, ok := parser.ParseSSDP(buf[:n], addr.IP); ok {
			select {
			case out <- obs:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (d *SSDPDriver) Stop() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}
