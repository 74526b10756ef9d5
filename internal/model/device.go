package model

import "time"

// DeviceRecord is the canonical, merged entity the Correlator maintains.
// It must never be stored with none of {MAC, IPv4, any IPv6} present.
type DeviceRecord struct {
	MAC          string
	IPv4         string
	IPv6         []IPv6Address
	Hostname     string
	FQDN         string
	Workgroup    string
	Manufacturer string
	OSHint       string // raw OS string from a source, e.g. a scanner report; the classifier's input
	OSFamily     string // classifier-derived, never set directly from an observation
	OSVersion    string
	Model        string
	Usage        string

	Ports        []int
	Services     []ServiceDescriptor
	ServiceTypes []string

	Sources       map[Source]struct{}
	DiscoveredVia map[Source]struct{}

	FirstSeen time.Time
	LastSeen  time.Time

	Confidence int
}

// NewDeviceRecord allocates a record with its set fields initialised empty.
func NewDeviceRecord() *DeviceRecord {
	return &DeviceRecord{
		Sources:       make(map[Source]struct{}),
		DiscoveredVia: make(map[Source]struct{}),
	}
}

// HasIdentifier reports whether the record carries at least one identifier.
func (d *DeviceRecord) HasIdentifier() bool {
	return d.MAC != "" || d.IPv4 != "" || len(d.IPv6) > 0
}

// SourceList returns the record's contributing sources as a sorted-free slice
// (order is not significant; callers that need determinism should sort).
func (d *DeviceRecord) SourceList() []Source {
	out := make([]Source, 0, len(d.Sources))
	for s := range d.Sources {
		out = append(out, s)
	}
	return out
}

// Clone returns a deep, independent copy suitable for handing to observers
// (the Event Channel never shares a live record with a subscriber).
func (d *DeviceRecord) Clone() *DeviceRecord {
	clone := *d
	clone.IPv6 = append([]IPv6Address(nil), d.IPv6...)
	clone.Ports = append([]int(nil), d.Ports...)
	clone.Services = append([]ServiceDescriptor(nil), d.Services...)
	clone.ServiceTypes = append([]string(nil), d.ServiceTypes...)
	clone.Sources = make(map[Source]struct{}, len(d.Sources))
	for s := range d.Sources {
		clone.Sources[s] = struct{}{}
	}
	clone.DiscoveredVia = make(map[Source]struct{}, len(d.DiscoveredVia))
	for s := range d.DiscoveredVia {
		clone.DiscoveredVia[s] = struct{}{}
	}
	return &clone
}
