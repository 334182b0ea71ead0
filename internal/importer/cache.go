package importer

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/Faultbox/blendscene/pkg/blend"
)

// Marker names used with FeatureCache.SetMarker.
const (
	MarkerOMA          = "oma"
	MarkerArmatureNode = "armature-node"
)

type nameKey struct {
	typ  string
	name string
}

type cacheEntry struct {
	record       blend.Record
	feature      any
	materialized bool
}

// FeatureCache maps old memory addresses to the records they point at and
// to the objects built from them. An address is materialized at most once
// per session and entries are never evicted.
//
// A FeatureCache belongs to one import session and is not safe for
// concurrent use.
type FeatureCache struct {
	acc      blend.Accessor
	entries  map[blend.Address]*cacheEntry
	names    map[nameKey]blend.Address
	markers  map[string]map[blend.Address]any
	inFlight *roaring64.Bitmap
	broken   *roaring64.Bitmap
	loaded   int
}

// NewFeatureCache creates an empty cache reading through acc.
func NewFeatureCache(acc blend.Accessor) *FeatureCache {
	return &FeatureCache{
		acc:      acc,
		entries:  make(map[blend.Address]*cacheEntry),
		names:    make(map[nameKey]blend.Address),
		markers:  make(map[string]map[blend.Address]any),
		inFlight: roaring64.New(),
		broken:   roaring64.New(),
	}
}

// Record returns the record at addr, fetching it on first use. Addresses
// that failed to fetch once fail again without another fetch.
func (c *FeatureCache) Record(addr blend.Address) (blend.Record, error) {
	if e, ok := c.entries[addr]; ok {
		return e.record, nil
	}
	if c.broken.Contains(uint64(addr)) {
		return nil, fmt.Errorf("%w: %s", blend.ErrBrokenReference, addr)
	}
	rec, err := blend.FetchOne(c.acc, addr)
	if err != nil {
		c.broken.Add(uint64(addr))
		return nil, err
	}
	c.entries[addr] = &cacheEntry{record: rec}
	return rec, nil
}

// ResolveOr returns the object stored for addr. On a miss it fetches the
// record, builds the object with produce and stores it. A failing produce
// leaves the address unmaterialized.
func (c *FeatureCache) ResolveOr(addr blend.Address, produce func(blend.Record) (any, error)) (any, error) {
	if v, ok := c.Feature(addr); ok {
		return v, nil
	}
	rec, err := c.Record(addr)
	if err != nil {
		return nil, err
	}
	v, err := produce(rec)
	if err != nil {
		return nil, err
	}
	return c.Store(addr, rec, v), nil
}

// Store materializes v under addr and returns the stored object. If addr
// already holds an object, that object is kept and returned.
func (c *FeatureCache) Store(addr blend.Address, rec blend.Record, v any) any {
	e, ok := c.entries[addr]
	if !ok {
		e = &cacheEntry{record: rec}
		c.entries[addr] = e
	}
	if e.materialized {
		return e.feature
	}
	if e.record == nil {
		e.record = rec
	}
	e.feature = v
	e.materialized = true
	c.loaded++
	if e.record != nil {
		if name := e.record.Name(); name != "" {
			key := nameKey{typ: e.record.Type(), name: name}
			if _, taken := c.names[key]; !taken {
				c.names[key] = addr
			}
		}
	}
	return v
}

// Feature returns the object materialized for addr.
func (c *FeatureCache) Feature(addr blend.Address) (any, bool) {
	e, ok := c.entries[addr]
	if !ok || !e.materialized {
		return nil, false
	}
	return e.feature, true
}

// ByName returns the first object materialized from a record of the given
// structure type and ID name.
func (c *FeatureCache) ByName(typ, name string) (any, bool) {
	addr, ok := c.names[nameKey{typ: typ, name: name}]
	if !ok {
		return nil, false
	}
	return c.Feature(addr)
}

// Len returns the number of materialized objects.
func (c *FeatureCache) Len() int {
	return c.loaded
}

// Begin marks addr as being resolved. It returns false if addr is already
// in flight, which means the caller reached it again through itself.
func (c *FeatureCache) Begin(addr blend.Address) bool {
	if c.inFlight.Contains(uint64(addr)) {
		return false
	}
	c.inFlight.Add(uint64(addr))
	return true
}

// End clears the in-flight mark of addr.
func (c *FeatureCache) End(addr blend.Address) {
	c.inFlight.Remove(uint64(addr))
}

// InFlight reports whether addr is being resolved.
func (c *FeatureCache) InFlight(addr blend.Address) bool {
	return c.inFlight.Contains(uint64(addr))
}

// Broken reports whether fetching addr has failed before.
func (c *FeatureCache) Broken(addr blend.Address) bool {
	return c.broken.Contains(uint64(addr))
}

// BrokenCount returns how many distinct addresses failed to fetch.
func (c *FeatureCache) BrokenCount() uint64 {
	return c.broken.GetCardinality()
}

// SetMarker attaches a named marker value to addr.
func (c *FeatureCache) SetMarker(marker string, addr blend.Address, v any) {
	m, ok := c.markers[marker]
	if !ok {
		m = make(map[blend.Address]any)
		c.markers[marker] = m
	}
	m[addr] = v
}

// Marker returns the marker value stored for addr.
func (c *FeatureCache) Marker(marker string, addr blend.Address) (any, bool) {
	v, ok := c.markers[marker][addr]
	return v, ok
}
