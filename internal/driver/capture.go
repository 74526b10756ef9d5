package driver

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"nscan/internal/model"
	"nscan/internal/parser"
)

const captureFilter = "arp or ip or ip6 or (udp and (port 67 or port 68 or port 546 or port 547 or port 137)) or icmp6"

// CaptureDriver is the long-running passive packet-capture driver of §4.4.
// It is started once and left running across PHASE1 into PHASE3 (if watch
// mode is enabled); Stop() is idempotent and releases the pcap handle
// promptly.
type CaptureDriver struct {
	mu     sync.Mutex
	handle *pcap.Handle
	side   *sideTable
}

// sideTable is the MAC->hostname side-index of §9: learnt from DHCP and
// NetBIOS Observations, it enriches later frames, but it is never written
// directly into the device store — every enrichment is re-emitted as a
// fresh Observation, and the Correlator remains the sole writer.
type sideTable struct {
	mu    sync.Mutex
	names map[string]string
}

func newSideTable() *sideTable { return &sideTable{names: make(map[string]string)} }

func (s *sideTable) learn(mac, hostname string) (learned bool) {
	if mac == "" || hostname == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.names[mac] == hostname {
		return false
	}
	s.names[mac] = hostname
	return true
}

func (s *sideTable) lookup(mac string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.names[mac]
	return name, ok
}

func (d *CaptureDriver) Name() string { return "capture" }

func (d *CaptureDriver) Start(ctx context.Context, cfg Config, out chan<- model.Observation) error {
	if cfg.Interface == "" {
		return fmt.Errorf("capture: no interface configured")
	}
	handle, err := pcap.OpenLive(cfg.Interface, 65535, true, pcap.BlockForever)
	if err != nil {
		log.Printf("capture: open %s failed (non-fatal): %v", cfg.Interface, err)
		return nil
	}
	if err := handle.SetBPFFilter(captureFilter); err != nil {
		log.Printf("capture: set BPF filter failed (non-fatal): %v", err)
		handle.Close()
		return nil
	}

	d.mu.Lock()
	d.handle = handle
	d.side = newSideTable()
	d.mu.Unlock()

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	packets := source.Packets()

	for {
		select {
		case <-ctx.Done():
			d.Stop()
			return nil
		case pkt, ok := <-packets:
			if !ok {
				return nil
			}
			d.handlePacket(pkt, out, ctx)
		}
	}
}

func (d *CaptureDriver) handlePacket(pkt gopacket.Packet, out chan<- model.Observation, ctx context.Context) {
	observations, ok := parser.DecodeFrame(pkt)
	if !ok {
		return
	}
	for _, obs := range observations {
		d.handleObservation(obs, out, ctx)
	}
}

func (d *CaptureDriver) handleObservation(obs model.Observation, out chan<- model.Observation, ctx context.Context) {
	if obs.Hostname != "" && obs.MAC != "" {
		if d.side.learn(obs.MAC, obs.Hostname) {
			d.emit(obs, out, ctx)
			return
		}
	}
	if obs.MAC != "" && obs.Hostname == "" {
		if name, found := d.side.lookup(obs.MAC); found {
			obs.Hostname = name
			obs.Source = model.SourceSideChan
		}
	}
	d.emit(obs, out, ctx)
}

func (d *CaptureDriver) emit(obs model.Observation, out chan<- model.Observation, ctx context.Context) {
	obs.Timestamp = time.Now()
	select {
	case out <- obs:
	case <-ctx.Done():
	}
}

func (d *CaptureDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handle != nil {
		d.handle.Close()
		d.handle = nil
	}
	return nil
}
