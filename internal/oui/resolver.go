// Package oui resolves a MAC address's first three octets to a vendor name
// via an embedded table, with a small bounded cache to amortise repeated
// lookups across a scan session.
package oui

import (
	"container/list"
	"fmt"
	"strings"
	"sync"

	"nscan/internal/netutil"
)

const defaultCacheSize = 4096

// Resolver maps canonicalised MAC addresses to vendor strings.
type Resolver struct {
	table map[string]string

	mu       sync.Mutex
	cache    map[string]*list.Element
	lru      *list.List
	cacheCap int
}

type cacheEntry struct {
	mac    string
	vendor string
	ok     bool
}

// New loads the embedded OUI table and returns a ready Resolver.
func New() (*Resolver, error) {
	table, err := loadTable()
	if err != nil {
		return nil, fmt.Errorf("oui: load table: %w", err)
	}
	return &Resolver{
		table:    table,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
		cacheCap: defaultCacheSize,
	}, nil
}

// Resolve normalises mac and looks up its vendor. The second return value
// is false when the MAC has no known vendor. Resolve is deterministic for
// any given canonicalised input: it is a pure function of the embedded table
// plus the cache, which never changes the result, only its latency.
func (r *Resolver) Resolve(mac string) (string, bool) {
	canon, err := netutil.NormalizeMAC(mac)
	if err != nil {
		return "", false
	}

	r.mu.Lock()
	if el, hit := r.cache[canon]; hit {
		r.lru.MoveToFront(el)
		entry := el.Value.(*cacheEntry)
		r.mu.Unlock()
		return entry.vendor, entry.ok
	}
	r.mu.Unlock()

	prefix := strings.ReplaceAll(canon, ":", "")[:6]
	vendor, ok := r.table[prefix]

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, hit := r.cache[canon]; !hit {
		el := r.lru.PushFront(&cacheEntry{mac: canon, vendor: vendor, ok: ok})
		r.cache[canon] = el
		if r.lru.Len() > r.cacheCap {
			oldest := r.lru.Back()
			if oldest != nil {
				r.lru.Remove(oldest)
				delete(r.cache, oldest.Value.(*cacheEntry).mac)
			}
		}
	}
	return vendor, ok
}

// IsLocallyAdministered reports whether mac has the locally-administered
// bit set. The predicate does not change lookup behaviour: Resolve looks
// such addresses up in the table like any other.
func (r *Resolver) IsLocallyAdministered(mac string) bool {
	canon, err := netutil.NormalizeMAC(mac)
	if err != nil {
		return false
	}
	return netutil.IsLocallyAdministeredMAC(canon)
}

// IsMulticast reports whether mac has the multicast bit set.
func (r *Resolver) IsMulticast(mac string) bool {
	canon, err := netutil.NormalizeMAC(mac)
	if err != nil {
		return false
	}
	return netutil.IsMulticastMAC(canon)
}
