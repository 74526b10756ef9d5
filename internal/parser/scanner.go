package parser

import (
	"regexp"
	"strings"
	"time"

	"nscan/internal/model"
	"nscan/internal/netutil"
)

var (
	scanReportHeader = regexp.MustCompile(`(?i)scan report for (?:(\S+)\s+)?\(?((?:\d{1,3}\.){3}\d{1,3}|[0-9a-fA-F:]+)\)?`)
	scanMACLine      = regexp.MustCompile(`(?i)MAC Address:\s+([0-9a-fA-F:]{17})(?:\s+\(([^)]+)\))?`)
	scanPortLine     = regexp.MustCompile(`^(\d+)/(tcp|udp)\s+open\s+(\S+)(?:\s+(.*))?$`)
	scanOSDetails    = regexp.MustCompile(`(?i)OS details:\s*(.+)`)
	scanOSRunning    = regexp.MustCompile(`(?i)Running:\s*(.+)`)
	scanOSCPE        = regexp.MustCompile(`(?i)OS CPE:\s*(.+)`)
	scanHostname     = regexp.MustCompile(`(?i)(?:NetBIOS computer name|NetBIOS name):\s*(\S+)`)
	scanWorkgroup    = regexp.MustCompile(`(?i)Workgroup\s*/?\s*Domain\s*name:\s*(\S+)`)
	scanDNSName      = regexp.MustCompile(`(?i)DNS computer name:\s*(\S+)`)
	scanDNSDomain    = regexp.MustCompile(`(?i)DNS domain name:\s*(\S+)`)
)

// scanBlock accumulates fields for the current "scan report for" target.
type scanBlock struct {
	ipv4         string
	ipv6         string
	mac          string
	manufacturer string
	hostname     string
	workgroup    string
	osHint       string
	ports        []int
	services     []model.ServiceDescriptor
}

func (b *scanBlock) empty() bool {
	return b.ipv4 == "" && b.ipv6 == "" && b.mac == ""
}

func (b *scanBlock) toObservation() model.Observation {
	obs := model.Observation{
		Source:       model.SourceScanner,
		Timestamp:    time.Now(),
		MAC:          b.mac,
		IPv4:         b.ipv4,
		Hostname:     b.hostname,
		Workgroup:    b.workgroup,
		Manufacturer: b.manufacturer,
		OSHint:       b.osHint,
		Ports:        b.ports,
		Services:     b.services,
	}
	if b.ipv6 != "" {
		if addr, err := netutil.ClassifyIPv6(b.ipv6); err == nil {
			obs.IPv6 = []model.IPv6Address{addr}
		}
	}
	return obs
}

// ParseScannerOutput is a state-ful line scanner over classic active-scanner
// stdout (e.g. nmap's human-readable report). It emits one Observation per
// "scan report for" block, recognising both IPv4 and IPv6 header targets.
func ParseScannerOutput(output string) []model.Observation {
	var obs []model.Observation
	var cur *scanBlock
	var osRunningSeen string

	flush := func() {
		if cur != nil && !cur.empty() {
			obs = append(obs, cur.toObservation())
		}
		cur = nil
		osRunningSeen = ""
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := scanReportHeader.FindStringSubmatch(trimmed); m != nil {
			flush()
			cur = &scanBlock{}
			target := m[2]
			if strings.Contains(target, ":") {
				cur.ipv6 = target
			} else {
				cur.ipv4 = target
			}
			if m[1] != "" && m[1] != target {
				cur.hostname = m[1]
			}
			continue
		}
		if cur == nil {
			continue
		}

		if m := scanMACLine.FindStringSubmatch(trimmed); m != nil {
			if mac, err := netutil.NormalizeMAC(m[1]); err == nil {
				cur.mac = mac
			}
			if len(m) > 2 && m[2] != "" {
				cur.manufacturer = m[2]
			}
			continue
		}
		if m := scanPortLine.FindStringSubmatch(trimmed); m != nil {
			port := atoiSafe(m[1])
			if port > 0 {
				cur.ports = append(cur.ports, port)
				cur.services = append(cur.services, model.ServiceDescriptor{
					Port:    port,
					Proto:   strings.ToLower(m[2]),
					Name:    m[3],
					Version: strings.TrimSpace(m[4]),
					State:   "open",
				})
			}
			continue
		}
		if m := scanOSDetails.FindStringSubmatch(trimmed); m != nil {
			if cur.osHint == "" {
				cur.osHint = strings.TrimSpace(m[1])
			}
			continue
		}
		if m := scanOSCPE.FindStringSubmatch(trimmed); m != nil {
			if cur.osHint == "" {
				cur.osHint = strings.TrimSpace(m[1])
			}
			continue
		}
		if m := scanOSRunning.FindStringSubmatch(trimmed); m != nil {
			osRunningSeen = strings.TrimSpace(m[1])
			if cur.osHint == "" {
				cur.osHint = osRunningSeen
			}
			continue
		}
		if m := scanHostname.FindStringSubmatch(trimmed); m != nil {
			if cur.hostname == "" {
				cur.hostname = m[1]
			}
			continue
		}
		if m := scanWorkgroup.FindStringSubmatch(trimmed); m != nil {
			if cur.workgroup == "" {
				cur.workgroup = m[1]
			}
			continue
		}
		if m := scanDNSName.FindStringSubmatch(trimmed); m != nil {
			if cur.hostname == "" {
				cur.hostname = m[1]
			}
			continue
		}
		if m := scanDNSDomain.FindStringSubmatch(trimmed); m != nil {
			if cur.workgroup == "" {
				cur.workgroup = m[1]
			}
			continue
		}
	}
	flush()
	return obs
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return -1
		}
		n = n*10 + int(c-'0')
	}
	return n
}
