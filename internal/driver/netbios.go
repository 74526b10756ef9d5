package driver

import (
	"bufio"
	"bytes"
	"context"
	"log"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"nscan/internal/model"
)

var workgroupCandidates = []string{"WORKGROUP", "MSHOME"}

// NetBIOSDriver implements both variants of §4.4's NetBIOS lookup driver:
// broadcast discovery of workgroup members, and per-IP resolution of known
// hosts lacking a hostname. No ecosystem Go library exists for the NetBIOS
// name-service protocol in the examined pack, so it shells to the
// platform's nmblookup/nbtstat tool and parses its text output, the same
// external-tool pattern the neighbour-table driver uses.
type NetBIOSDriver struct{}

func (d *NetBIOSDriver) Name() string { return "netbios" }

func (d *NetBIOSDriver) Start(ctx context.Context, cfg Config, out chan<- model.Observation) error {
	for _, wg := range workgroupCandidates {
		obs := d.broadcastQuery(ctx, wg)
		for _, o := range obs {
			select {
			case out <- o:
			case <-ctx.Done():
				return nil
			}
		}
	}

	for _, ip := range cfg.IPv4Targets {
		obs, ok := d.perIPQuery(ctx, ip)
		if !ok {
			continue
		}
		select {
		case out <- obs:
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

func (d *NetBIOSDriver) Stop() error { return nil }

func (d *NetBIOSDriver) broadcastQuery(ctx context.Context, workgroup string) []model.Observation {
	cmd := exec.CommandContext(ctx, "nmblookup", workgroup)
	raw, err := cmd.Output()
	if err != nil {
		log.Printf("netbios: broadcast query for %s failed (non-fatal): %v", workgroup, err)
		return nil
	}

	var obs []model.Observation
	for _, ip := range parseNmblookupAddresses(raw) {
		if o, ok := d.perIPQuery(ctx, ip); ok {
			o.Workgroup = workgroup
			obs = append(obs, o)
		}
	}
	return obs
}

var nmblookupAddrLine = regexp.MustCompile(`^\s*((?:\d{1,3}\.){3}\d{1,3})\s`)

func parseNmblookupAddresses(raw []byte) []string {
	var addrs []string
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		if m := nmblookupAddrLine.FindStringSubmatch(scanner.Text()); m != nil {
			addrs = append(addrs, m[1])
		}
	}
	return addrs
}

var nmblookupNameLine = regexp.MustCompile(`(?i)^\s*([A-Za-z0-9_\-]+)\s*<00>`)

func (d *NetBIOSDriver) perIPQuery(ctx context.Context, ip string) (model.Observation, bool) {
	queryCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	cmd := exec.CommandContext(queryCtx, "nmblookup", "-A", ip)
	raw, err := cmd.Output()
	if err != nil {
		return model.Observation{}, false
	}

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	var hostname string
	for scanner.Scan() {
		line := scanner.Text()
		if m := nmblookupNameLine.FindStringSubmatch(line); m != nil {
			hostname = strings.TrimSpace(m[1])
			break
		}
	}
	if hostname == "" {
		return model.Observation{}, false
	}

	return model.Observation{
		Source:    model.SourceNetBIOS,
		Timestamp: time.Now(),
		IPv4:      ip,
		Hostname:  hostname,
	}, true
}
