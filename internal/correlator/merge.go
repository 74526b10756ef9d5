package correlator

import (
	"nscan/internal/model"
	"nscan/internal/netutil"
)

// MergeResult tells the caller (typically the orchestrator, forwarding to
// the event bus) whether the observation created a new record, updated an
// existing one, or was discarded.
type MergeResult int

const (
	ResultDiscarded MergeResult = iota
	ResultCreated
	ResultUpdated
	// ResultEnriched is ResultUpdated's special case where the merge caused
	// the classifier to newly derive (or change) manufacturer, OS, or usage
	// attribution — worth its own event kind per §6, distinct from a plain
	// field union that didn't teach us anything new about the device.
	ResultEnriched
)

// OnObservation ingests one Observation per §4.6's algorithm: probe the
// indexes in order MAC -> IPv4 -> each IPv6; the first hit selects the
// existing record; otherwise create one keyed by the preferred identifier
// present. Must be called from a single logical owner.
func (c *Correlator) OnObservation(obs model.Observation) (*model.DeviceRecord, MergeResult) {
	if !obs.HasIdentifier() {
		return nil, ResultDiscarded
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	handle, found := c.lookupHandle(obs)
	var rec *model.DeviceRecord
	result := ResultUpdated

	if !found {
		rec = model.NewDeviceRecord()
		rec.FirstSeen = obs.Timestamp
		handle = c.next
		c.next++
		c.arena[handle] = rec
		result = ResultCreated
	} else {
		rec = c.arena[handle]
	}

	before := newEnrichmentSnapshot(rec)
	applyMerge(rec, obs)
	c.reindex(handle, rec)
	c.enrich(rec)

	if result == ResultUpdated && before != newEnrichmentSnapshot(rec) {
		result = ResultEnriched
	}

	return rec.Clone(), result
}

// enrichmentSnapshot captures the classifier-derived fields of rec for
// before/after comparison around a merge.
type enrichmentSnapshot struct {
	manufacturer, osFamily, osVersion, model, usage string
}

func newEnrichmentSnapshot(rec *model.DeviceRecord) enrichmentSnapshot {
	return enrichmentSnapshot{rec.Manufacturer, rec.OSFamily, rec.OSVersion, rec.Model, rec.Usage}
}

// lookupHandle probes MAC, then IPv4, then each IPv6 address, returning the
// first hit.
func (c *Correlator) lookupHandle(obs model.Observation) (Handle, bool) {
	if obs.MAC != "" {
		if h, ok := c.byMAC[obs.MAC]; ok {
			return h, true
		}
	}
	if obs.IPv4 != "" {
		if h, ok := c.byIPv4[obs.IPv4]; ok {
			return h, true
		}
	}
	for _, addr := range obs.IPv6 {
		if h, ok := c.byIPv6[addr.Addr]; ok {
			return h, true
		}
	}
	return 0, false
}

// reindex ensures every identifier now present on rec points at handle,
// collapsing any record that previously owned one of those identifiers
// under a different handle into this one (dual-stack unification, §4.6).
func (c *Correlator) reindex(handle Handle, rec *model.DeviceRecord) {
	if rec.MAC != "" {
		c.absorbIfDifferent(c.byMAC[rec.MAC], handle, rec.MAC, indexMAC)
		c.byMAC[rec.MAC] = handle
	}
	if rec.IPv4 != "" {
		c.absorbIfDifferent(c.byIPv4[rec.IPv4], handle, rec.IPv4, indexIPv4)
		c.byIPv4[rec.IPv4] = handle
	}
	for _, addr := range rec.IPv6 {
		c.absorbIfDifferent(c.byIPv6[addr.Addr], handle, addr.Addr, indexIPv6)
		c.byIPv6[addr.Addr] = handle
	}
}

type indexKind int

const (
	indexMAC indexKind = iota
	indexIPv4
	indexIPv6
)

// absorbIfDifferent collapses the record at oldHandle into newHandle when a
// newly-learnt identifier reveals they refer to the same device. The
// absorbed record's fields are merged into the surviving one and every
// index entry formerly pointing at oldHandle is rewritten.
func (c *Correlator) absorbIfDifferent(oldHandle, newHandle Handle, key string, _ indexKind) {
	if oldHandle == newHandle {
		return
	}
	oldRec, ok := c.arena[oldHandle]
	if !ok {
		return
	}
	newRec := c.arena[newHandle]
	mergeRecords(newRec, oldRec)

	delete(c.arena, oldHandle)
	for mac, h := range c.byMAC {
		if h == oldHandle {
			c.byMAC[mac] = newHandle
		}
	}
	for ip, h := range c.byIPv4 {
		if h == oldHandle {
			c.byIPv4[ip] = newHandle
		}
	}
	for ip, h := range c.byIPv6 {
		if h == oldHandle {
			c.byIPv6[ip] = newHandle
		}
	}
}

// applyMerge folds one Observation into rec under the preference rules of
// §4.6: scalars are first-non-empty-wins, collections union, last_seen
// always advances.
func applyMerge(rec *model.DeviceRecord, obs model.Observation) {
	if rec.MAC == "" {
		rec.MAC = obs.MAC
	}
	if rec.IPv4 == "" {
		rec.IPv4 = obs.IPv4
	}
	if rec.Hostname == "" {
		rec.Hostname = obs.Hostname
	}
	if rec.FQDN == "" {
		rec.FQDN = obs.FQDN
	}
	if rec.Workgroup == "" {
		rec.Workgroup = obs.Workgroup
	}
	if rec.Manufacturer == "" {
		rec.Manufacturer = obs.Manufacturer
	}
	if rec.OSHint == "" {
		rec.OSHint = obs.OSHint
	}

	rec.IPv6 = unionIPv6(rec.IPv6, obs.IPv6)
	rec.Ports = unionPorts(rec.Ports, obs.Ports)
	rec.Services = unionServices(rec.Services, obs.Services)
	rec.ServiceTypes = unionStrings(rec.ServiceTypes, obs.ServiceTypes)

	if rec.Sources == nil {
		rec.Sources = make(map[model.Source]struct{})
	}
	rec.Sources[obs.Source] = struct{}{}
	if rec.DiscoveredVia == nil {
		rec.DiscoveredVia = make(map[model.Source]struct{})
	}
	rec.DiscoveredVia[obs.Source] = struct{}{}

	if rec.FirstSeen.IsZero() || (!obs.Timestamp.IsZero() && obs.Timestamp.Before(rec.FirstSeen)) {
		if rec.FirstSeen.IsZero() {
			rec.FirstSeen = obs.Timestamp
		}
	}
	if obs.Timestamp.After(rec.LastSeen) {
		rec.LastSeen = obs.Timestamp
	}
	rec.Ports = unionPortsFromServices(rec.Ports, rec.Services)
}

// mergeRecords folds absorbed's fields into survivor using the same
// preference rules as applyMerge, used when two records collapse into one.
func mergeRecords(survivor, absorbed *model.DeviceRecord) {
	if survivor.MAC == "" {
		survivor.MAC = absorbed.MAC
	}
	if survivor.IPv4 == "" {
		survivor.IPv4 = absorbed.IPv4
	}
	if survivor.Hostname == "" {
		survivor.Hostname = absorbed.Hostname
	}
	if survivor.FQDN == "" {
		survivor.FQDN = absorbed.FQDN
	}
	if survivor.Workgroup == "" {
		survivor.Workgroup = absorbed.Workgroup
	}
	if survivor.Manufacturer == "" {
		survivor.Manufacturer = absorbed.Manufacturer
	}
	if survivor.OSHint == "" {
		survivor.OSHint = absorbed.OSHint
	}
	if survivor.OSFamily == "" {
		survivor.OSFamily = absorbed.OSFamily
	}
	if survivor.OSVersion == "" {
		survivor.OSVersion = absorbed.OSVersion
	}
	if survivor.Model == "" {
		survivor.Model = absorbed.Model
	}
	if survivor.Usage == "" {
		survivor.Usage = absorbed.Usage
	}

	survivor.IPv6 = unionIPv6(survivor.IPv6, absorbed.IPv6)
	survivor.Ports = unionPorts(survivor.Ports, absorbed.Ports)
	survivor.Services = unionServices(survivor.Services, absorbed.Services)
	survivor.ServiceTypes = unionStrings(survivor.ServiceTypes, absorbed.ServiceTypes)

	for s := range absorbed.Sources {
		if survivor.Sources == nil {
			survivor.Sources = make(map[model.Source]struct{})
		}
		survivor.Sources[s] = struct{}{}
	}
	for s := range absorbed.DiscoveredVia {
		if survivor.DiscoveredVia == nil {
			survivor.DiscoveredVia = make(map[model.Source]struct{})
		}
		survivor.DiscoveredVia[s] = struct{}{}
	}

	if survivor.FirstSeen.IsZero() || (!absorbed.FirstSeen.IsZero() && absorbed.FirstSeen.Before(survivor.FirstSeen)) {
		survivor.FirstSeen = absorbed.FirstSeen
	}
	if absorbed.LastSeen.After(survivor.LastSeen) {
		survivor.LastSeen = absorbed.LastSeen
	}
}

func unionIPv6(existing, incoming []model.IPv6Address) []model.IPv6Address {
	for _, addr := range incoming {
		dup := false
		for _, have := range existing {
			if netutil.SameIPv6(have.Addr, addr.Addr) {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, addr)
		}
	}
	return existing
}

func unionStrings(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		seen[s] = struct{}{}
	}
	for _, s := range incoming {
		if _, ok := seen[s]; !ok {
			existing = append(existing, s)
			seen[s] = struct{}{}
		}
	}
	return existing
}

func unionPorts(existing, incoming []int) []int {
	seen := make(map[int]struct{}, len(existing))
	for _, p := range existing {
		seen[p] = struct{}{}
	}
	for _, p := range incoming {
		if _, ok := seen[p]; !ok {
			existing = append(existing, p)
			seen[p] = struct{}{}
		}
	}
	return existing
}

// unionServices appends incoming and collapses duplicates on (port,
// protocol), preferring the entry with the longer version string.
func unionServices(existing, incoming []model.ServiceDescriptor) []model.ServiceDescriptor {
	combined := append(append([]model.ServiceDescriptor{}, existing...), incoming...)

	best := make(map[[2]interface{}]model.ServiceDescriptor)
	var order [][2]interface{}
	for _, svc := range combined {
		key := [2]interface{}{svc.Port, svc.Proto}
		cur, ok := best[key]
		if !ok {
			best[key] = svc
			order = append(order, key)
			continue
		}
		if len(svc.Version) > len(cur.Version) {
			best[key] = svc
		}
	}

	out := make([]model.ServiceDescriptor, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}

// unionPortsFromServices keeps Ports as the set-union of services' ports,
// per the invariant ports = ⋃ services.port.
func unionPortsFromServices(ports []int, services []model.ServiceDescriptor) []int {
	for _, svc := range services {
		found := false
		for _, p := range ports {
			if p == svc.Port {
				found = true
				break
			}
		}
		if !found {
			ports = append(ports, svc.Port)
		}
	}
	return ports
}
