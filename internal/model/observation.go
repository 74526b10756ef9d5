// Package model holds the data types shared across the discovery pipeline:
// Observations emitted by Source Drivers, and the Device Records the
// Correlator maintains from them.
package model

import "time"

// Source tags the discovery method that produced an Observation.
type Source string

const (
	SourceARP      Source = "arp"
	SourceNDP      Source = "ndp"
	SourceScanner  Source = "scanner"
	SourceCapture  Source = "capture"
	SourceMDNS     Source = "mdns"
	SourceSSDP     Source = "ssdp"
	SourceNetBIOS  Source = "netbios"
	SourceSideChan Source = "sidechannel"
)

// IPv6Type classifies an IPv6 address by its leading bits.
type IPv6Type string

const (
	IPv6LinkLocal   IPv6Type = "link-local"
	IPv6UniqueLocal IPv6Type = "unique-local"
	IPv6Global      IPv6Type = "global"
	IPv6Multicast   IPv6Type = "multicast"
	IPv6Loopback    IPv6Type = "loopback"
	IPv6Unknown     IPv6Type = "unknown"
)

// IPv6Address is a classified IPv6 address with its zone identifier already
// stripped from Addr.
type IPv6Address struct {
	Addr  string
	Type  IPv6Type
	Scope string // interface name from the zone identifier, if any
}

// ServiceDescriptor describes one discovered network service.
type ServiceDescriptor struct {
	Port    int
	Proto   string // "tcp" | "udp"
	Name    string
	Version string
	State   string // always "open" for now
}

// Key identifies a service irrespective of version/state, used to collapse
// duplicates during merge.
func (s ServiceDescriptor) Key() (int, string) { return s.Port, s.Proto }

// Observation is a single, immutable report from one source at one instant.
type Observation struct {
	ID         string
	Source     Source
	Timestamp  time.Time
	MAC        string // canonical form, empty if unknown
	IPv4       string
	IPv6       []IPv6Address
	Hostname   string
	FQDN       string
	Workgroup  string
	Domain     string
	Manufacturer string
	OSHint     string
	Ports      []int
	Services   []ServiceDescriptor
	ServiceTypes []string
}

// HasIdentifier reports whether the observation carries at least one of the
// three identifying fields a Device Record requires.
func (o Observation) HasIdentifier() bool {
	return o.MAC != "" || o.IPv4 != "" || len(o.IPv6) > 0
}
