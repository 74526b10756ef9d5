package driver

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/Ullaakut/nmap/v3"

	"nscan/internal/model"
	"nscan/internal/netutil"
)

// ScannerDriver is the two-phase active port-scanner driver of §4.4: a ping
// sweep over the target CIDR, then a detailed scan of each live host,
// batched at MaxConcurrent. It drives github.com/Ullaakut/nmap/v3 directly
// rather than re-parsing nmap's text output (see SPEC_FULL.md §4.3).
type ScannerDriver struct {
	MaxConcurrent int

	mu      sync.Mutex
	stopped bool
}

func (d *ScannerDriver) Name() string { return "scanner" }

func (d *ScannerDriver) Start(ctx context.Context, cfg Config, out chan<- model.Observation) error {
	if cfg.CIDR == "" {
		return fmt.Errorf("scanner: no target CIDR configured")
	}

	live, err := d.pingSweep(ctx, cfg.CIDR)
	if err != nil {
		log.Printf("scanner: ping sweep failed (non-fatal): %v", err)
		return nil
	}
	// IPv6 hosts collected via NDP/capture in PHASE1 have no CIDR to sweep
	// and are already known live, so they're scanned directly alongside the
	// ping sweep's IPv4 results.
	live = append(live, cfg.IPv6Targets...)
	if len(live) == 0 {
		return nil
	}

	profile := ProfileFor(cfg.ScanLevel)
	if cfg.HostTimeout > 0 {
		profile.HostTimeout = cfg.HostTimeout
	}

	maxConcurrent := d.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 15
	}
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for _, host := range live {
		if d.isStopped() {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			defer func() { <-sem }()
			d.scanHost(ctx, target, profile, out)
		}(host)
	}
	wg.Wait()
	return nil
}

func (d *ScannerDriver) Stop() error {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	return nil
}

func (d *ScannerDriver) isStopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped
}

func (d *ScannerDriver) pingSweep(ctx context.Context, cidr string) ([]string, error) {
	scanner, err := nmap.NewScanner(ctx,
		nmap.WithTargets(cidr),
		nmap.WithPingScan(),
	)
	if err != nil {
		return nil, fmt.Errorf("create ping-sweep scanner: %w", err)
	}
	result, _, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("ping sweep: %w", err)
	}
	if result == nil {
		return nil, nil
	}

	var hosts []string
	for _, h := range result.Hosts {
		for _, a := range h.Addresses {
			if a.AddrType == "ipv4" {
				hosts = append(hosts, a.Addr)
			}
		}
	}
	return hosts, nil
}

func (d *ScannerDriver) scanHost(ctx context.Context, target string, profile ScanLevelProfile, out chan<- model.Observation) {
	hostCtx, cancel := context.WithTimeout(ctx, time.Duration(profile.HostTimeout)*time.Second)
	defer cancel()

	opts := []nmap.Option{
		nmap.WithTargets(target),
		nmap.WithPorts(portsToString(profile.Ports)),
		nmap.WithSkipHostDiscovery(),
	}
	if ip := net.ParseIP(target); ip != nil && ip.To4() == nil {
		opts = append(opts, nmap.WithIPv6Scanning())
	}
	if profile.VersionProbe != "light" {
		opts = append(opts, nmap.WithServiceInfo())
	}
	if profile.OSDetection {
		opts = append(opts, nmap.WithOSDetection())
	}

	scanner, err := nmap.NewScanner(hostCtx, opts...)
	if err != nil {
		log.Printf("scanner: create scanner for %s: %v", target, err)
		return
	}
	result, _, err := scanner.Run()
	if err != nil {
		log.Printf("scanner: scan %s: %v", target, err)
		return
	}
	if result == nil {
		return
	}

	for _, host := range result.Hosts {
		obs, ok := hostToObservation(host)
		if !ok {
			continue
		}
		select {
		case out <- obs:
		case <-ctx.Done():
			return
		}
	}
}

func portsToString(ports []int) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(parts, ",")
}

func hostToObservation(host nmap.Host) (model.Observation, bool) {
	var ipv4 string
	var ipv6 []model.IPv6Address
	for _, a := range host.Addresses {
		switch a.AddrType {
		case "ipv4":
			ipv4 = a.Addr
		case "ipv6":
			if addr, err := netutil.ClassifyIPv6(a.Addr); err == nil {
				ipv6 = append(ipv6, addr)
			}
		}
	}
	if ipv4 == "" && len(ipv6) == 0 {
		return model.Observation{}, false
	}

	obs := model.Observation{
		Source:    model.SourceScanner,
		Timestamp: time.Now(),
		IPv4:      ipv4,
		IPv6:      ipv6,
	}

	for _, a := range host.Addresses {
		if a.AddrType == "mac" {
			if mac, err := netutil.NormalizeMAC(a.Addr); err == nil {
				obs.MAC = mac
				obs.Manufacturer = a.Vendor
			}
		}
	}
	for _, hn := range host.Hostnames {
		if hn.Name != "" {
			obs.Hostname = hn.Name
			break
		}
	}
	for _, p := range host.Ports {
		if p.State.State != "open" {
			continue
		}
		obs.Ports = append(obs.Ports, int(p.ID))
		obs.Services = append(obs.Services, model.ServiceDescriptor{
			Port:    int(p.ID),
			Proto:   p.Protocol,
			Name:    p.Service.Name,
			Version: strings.TrimSpace(strings.Join([]string{p.Service.Product, p.Service.Version}, " ")),
			State:   "open",
		})
	}
	if len(host.OS.Matches) > 0 {
		obs.OSHint = host.OS.Matches[0].Name
	}

	return obs, true
}
