// Package correlator implements the keyed device store described in
// SPEC_FULL.md §4.6/§9: an arena of Device Records addressed by stable
// handles, plus three identifier indexes (MAC, IPv4, IPv6) that store
// handles rather than direct references. The Correlator is single-owner —
// callers are expected to serialise calls to OnObservation (typically by
// running it as the sole consumer of a channel); OnObservation and the
// exported snapshot methods share one mutex so that a snapshot taken from an
// observer goroutine never races with ingestion.
package correlator

import (
	"sync"

	"nscan/internal/classifier"
	"nscan/internal/model"
	"nscan/internal/oui"
)

// Handle is a stable arena index. Handles are never reused for a different
// record within a Correlator's lifetime (until Clear()).
type Handle int

// Correlator owns the device store. Zero value is not usable; use New.
type Correlator struct {
	mu sync.Mutex

	arena map[Handle]*model.DeviceRecord
	next  Handle

	byMAC  map[string]Handle
	byIPv4 map[string]Handle
	byIPv6 map[string]Handle

	resolver   *oui.Resolver
	classifier *classifier.Classifier
}

// New builds an empty Correlator backed by the given OUI resolver.
func New(resolver *oui.Resolver) *Correlator {
	return &Correlator{
		arena:      make(map[Handle]*model.DeviceRecord),
		byMAC:      make(map[string]Handle),
		byIPv4:     make(map[string]Handle),
		byIPv6:     make(map[string]Handle),
		resolver:   resolver,
		classifier: classifier.New(resolver),
	}
}

// GetDevices returns a deep-cloned snapshot of every stored record.
func (c *Correlator) GetDevices() []*model.DeviceRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*model.DeviceRecord, 0, len(c.arena))
	for _, rec := range c.arena {
		out = append(out, rec.Clone())
	}
	return out
}

// GetByMAC returns a clone of the record bearing mac, if any.
func (c *Correlator) GetByMAC(mac string) (*model.DeviceRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.byMAC[mac]
	if !ok {
		return nil, false
	}
	return c.arena[h].Clone(), true
}

// GetByIP returns a clone of the record bearing ip (IPv4 or IPv6), if any.
func (c *Correlator) GetByIP(ip string) (*model.DeviceRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.byIPv4[ip]; ok {
		return c.arena[h].Clone(), true
	}
	if h, ok := c.byIPv6[ip]; ok {
		return c.arena[h].Clone(), true
	}
	return nil, false
}

// Clear resets the store to empty.
func (c *Correlator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arena = make(map[Handle]*model.DeviceRecord)
	c.byMAC = make(map[string]Handle)
	c.byIPv4 = make(map[string]Handle)
	c.byIPv6 = make(map[string]Handle)
	c.next = 0
}

// Count returns the number of stored records.
func (c *Correlator) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.arena)
}
