// Package driver implements one Source Driver per discovery method. Each
// driver is a bounded asynchronous task that emits model.Observation values
// into a shared channel until it completes, is cancelled, or fails.
package driver

import (
	"context"

	"nscan/internal/model"
)

// Config carries the subset of session configuration a driver needs. Not
// every field applies to every driver.
type Config struct {
	Interface   string
	CIDR        string
	IPv6Enabled bool
	ScanLevel   ScanLevel
	HostTimeout int // seconds, overrides the scan level's default when > 0
	IPv4Targets []string // known hosts from earlier phases, for NetBIOS per-IP
	IPv6Targets []string // known hosts from earlier phases (NDP/capture), for the active scanner
}

// ScanLevel is the active-scanner preset described in §4.4.
type ScanLevel string

const (
	ScanQuick    ScanLevel = "quick"
	ScanStandard ScanLevel = "standard"
	ScanThorough ScanLevel = "thorough"
)

// ScanLevelProfile is a small record of knobs consulted by the active-scanner
// driver; scan levels are configuration, not separate code paths.
type ScanLevelProfile struct {
	Ports         []int
	VersionProbe  string // "light" | "medium" | "heavy"
	OSDetection   bool
	OSGuess       bool
	HostTimeout   int // seconds
}

var scanLevelProfiles = map[ScanLevel]ScanLevelProfile{
	ScanQuick: {
		Ports:        []int{22, 80, 443},
		VersionProbe: "light",
		OSDetection:  false,
		HostTimeout:  10,
	},
	ScanStandard: {
		Ports:        commonPorts20,
		VersionProbe: "medium",
		OSDetection:  true,
		OSGuess:      false,
		HostTimeout:  30,
	},
	ScanThorough: {
		Ports:        topPorts1000,
		VersionProbe: "heavy",
		OSDetection:  true,
		OSGuess:      true,
		HostTimeout:  90,
	},
}

// ProfileFor normalises the "fast" alias to quick and returns the level's
// knob profile, defaulting to standard for unrecognised input.
func ProfileFor(level ScanLevel) ScanLevelProfile {
	if level == "fast" {
		level = ScanQuick
	}
	if p, ok := scanLevelProfiles[level]; ok {
		return p
	}
	return scanLevelProfiles[ScanStandard]
}

var commonPorts20 = []int{21, 22, 23, 25, 53, 80, 110, 111, 135, 139, 143, 443, 445, 993, 995, 1723, 3306, 3389, 5900, 8080}

// topPorts1000 stands in for nmap's curated top-1000 list; a real deployment
// would ship the full table, but the driver only needs "a large, realistic
// port set" to exercise the thorough scan level's behaviour.
var topPorts1000 = append(append([]int{}, commonPorts20...), 8443, 8888, 9000, 9090, 6443, 10250, 2375, 2376, 5353, 631, 548, 32400)

// Driver is the contract every Source Driver conforms to.
type Driver interface {
	Name() string
	Start(ctx context.Context, cfg Config, out chan<- model.Observation) error
	Stop() error
}
