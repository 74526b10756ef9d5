package classifier

import (
	"regexp"
	"strings"

	"nscan/internal/model"
)

const (
	UsageRouter    = "Router/Gateway"
	UsageSwitch    = "Switch"
	UsageAP        = "Access Point"
	UsageServer    = "Server"
	UsageComputer  = "Computer/Workstation"
	UsageLaptop    = "Laptop"
	UsageMobile    = "Mobile"
	UsageIoT       = "IoT"
	UsageSmartHome = "Smart Home"
	UsagePrinter   = "Printer/Scanner"
	UsageTV        = "TV/Media"
	UsageGaming    = "Gaming"
	UsageStorage   = "Storage/NAS"
	UsageCamera    = "Camera"
	UsageUnknown   = "Unknown"
)

type usageRule struct {
	category            string
	vendorPattern       *regexp.Regexp
	hostnamePattern     *regexp.Regexp
	hostnameExclude     *regexp.Regexp // hostnamePattern hit is ignored if this also matches
	indicatorPorts      []int
	portCombos          []portCombo
	osFamilies          map[string]int
	serviceTypes        []string
}

type portCombo struct {
	ports []int
	bonus int
}

var usageRules = []usageRule{
	{
		category:        UsageRouter,
		vendorPattern:   regexp.MustCompile(`(?i)netgear|tp-link|d-link|ubiquiti|asus|linksys|mikrotik`),
		hostnamePattern: regexp.MustCompile(`(?i)router|gateway|^gw-`),
		indicatorPorts:  []int{53, 67},
		osFamilies:      map[string]int{"Embedded": 5},
	},
	{
		category:        UsageSwitch,
		vendorPattern:   regexp.MustCompile(`(?i)cisco|netgear|tp-link|ubiquiti|mikrotik|juniper`),
		hostnamePattern: regexp.MustCompile(`(?i)\bsw-|switch`),
		hostnameExclude: regexp.MustCompile(`(?i)switch-console`),
		indicatorPorts:  []int{161},
	},
	{
		category:        UsageAP,
		hostnamePattern: regexp.MustCompile(`(?i)\bap\b|access-?point|unifi`),
		vendorPattern:   regexp.MustCompile(`(?i)ubiquiti|aruba|meraki`),
	},
	{
		category:        UsageServer,
		hostnamePattern: regexp.MustCompile(`(?i)server|\bsrv-|-srv\b`),
		indicatorPorts:  []int{80, 443, 22},
		portCombos:      []portCombo{{ports: []int{80, 443}, bonus: 3}},
	},
	{
		category:        UsageComputer,
		hostnamePattern: regexp.MustCompile(`(?i)desktop|workstation|-pc\b`),
		portCombos:      []portCombo{{ports: []int{3389, 445}, bonus: 3}},
		osFamilies:      map[string]int{"Windows": 3, "Linux": 2},
	},
	{
		category:        UsageLaptop,
		hostnamePattern: regexp.MustCompile(`(?i)laptop|macbook|notebook`),
	},
	{
		category:        UsageMobile,
		hostnamePattern: regexp.MustCompile(`(?i)iphone|android|-phone\b`),
		osFamilies:      map[string]int{"iOS": 6, "Android": 6},
	},
	{
		category:        UsagePrinter,
		vendorPattern:   regexp.MustCompile(`(?i)canon|epson|brother|hp\b|hewlett`),
		hostnamePattern: regexp.MustCompile(`(?i)printer|scanner`),
		indicatorPorts:  []int{631, 9100, 515},
		serviceTypes:    []string{"_ipp._tcp", "_printer._tcp"},
	},
	{
		category:        UsageTV,
		vendorPattern:   regexp.MustCompile(`(?i)samsung|lg electronics|vizio|roku|sonos`),
		hostnamePattern: regexp.MustCompile(`(?i)\btv\b|roku|chromecast|appletv`),
		serviceTypes:    []string{"_airplay._tcp", "_googlecast._tcp"},
	},
	{
		category:        UsageGaming,
		hostnamePattern: regexp.MustCompile(`(?i)xbox|playstation|\bps[45]\b|nintendo|switch-console`),
	},
	{
		category:        UsageStorage,
		hostnamePattern: regexp.MustCompile(`(?i)\bnas\b|synology|qnap`),
		indicatorPorts:  []int{445, 548, 5000},
	},
	{
		category:        UsageCamera,
		hostnamePattern: regexp.MustCompile(`(?i)camera|cam-|ipcam`),
		indicatorPorts:  []int{554, 8554},
	},
	{
		category:       UsageSmartHome,
		vendorPattern:  regexp.MustCompile(`(?i)sonos|amazon technologies|philips|nest`),
		osFamilies:     map[string]int{"Embedded": 2},
		serviceTypes:   []string{"_hap._tcp", "_homekit._tcp"},
	},
	{
		category:       UsageIoT,
		osFamilies:     map[string]int{"Embedded": 4},
	},
}

// ClassifyUsage scores every category per §4.7's weight table and returns
// the highest-scoring one plus its confidence (min(100, best_score * 10)).
// The caller decides whether to apply it (the record's usage is set only
// when confidence > 30).
func (c *Classifier) ClassifyUsage(rec *model.DeviceRecord) (string, int) {
	bestCategory := UsageUnknown
	bestScore := 0

	for _, rule := range usageRules {
		score := c.scoreRule(rule, rec)
		if score > bestScore {
			bestScore = score
			bestCategory = rule.category
		}
	}

	confidence := bestScore * 10
	if confidence > 100 {
		confidence = 100
	}
	return bestCategory, confidence
}

func (c *Classifier) scoreRule(rule usageRule, rec *model.DeviceRecord) int {
	score := 0

	if rule.vendorPattern != nil && rec.Manufacturer != "" && rule.vendorPattern.MatchString(rec.Manufacturer) {
		score += 5
	}
	if rule.hostnamePattern != nil && rec.Hostname != "" && rule.hostnamePattern.MatchString(rec.Hostname) {
		if rule.hostnameExclude == nil || !rule.hostnameExclude.MatchString(rec.Hostname) {
			score += 4
		}
	}
	for _, port := range rule.indicatorPorts {
		if hasPort(rec.Ports, port) {
			score += 2
		}
	}
	for _, combo := range rule.portCombos {
		if hasAllPorts(rec.Ports, combo.ports) {
			score += combo.bonus
		}
	}
	if rule.osFamilies != nil {
		if bonus, ok := rule.osFamilies[rec.OSFamily]; ok {
			score += bonus
		}
	}
	for _, st := range rule.serviceTypes {
		if hasServiceType(rec, st) {
			score += 5
		}
	}
	return score
}

func hasPort(ports []int, target int) bool {
	for _, p := range ports {
		if p == target {
			return true
		}
	}
	return false
}

func hasAllPorts(ports []int, targets []int) bool {
	for _, t := range targets {
		if !hasPort(ports, t) {
			return false
		}
	}
	return true
}

// hasServiceType checks the record's mDNS/SSDP service-type tags for a
// match, ignoring the leading underscore nmDNS service names carry.
func hasServiceType(rec *model.DeviceRecord, serviceType string) bool {
	needle := strings.ToLower(strings.TrimPrefix(serviceType, "_"))
	for _, st := range rec.ServiceTypes {
		if strings.Contains(strings.ToLower(st), needle) {
			return true
		}
	}
	return false
}
