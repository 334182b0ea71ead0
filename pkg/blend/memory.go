package blend

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// MemoryFile is an Accessor over records and blocks held in memory.
// It is not safe for concurrent use.
type MemoryFile struct {
	order   binary.ByteOrder
	records map[Address][]Record
	blocks  map[Address][]byte
	fetches int
}

// NewMemoryFile creates an empty in-memory file.
func NewMemoryFile(order binary.ByteOrder) *MemoryFile {
	if order == nil {
		order = binary.LittleEndian
	}
	return &MemoryFile{
		order:   order,
		records: make(map[Address][]Record),
		blocks:  make(map[Address][]byte),
	}
}

// Add stores records as the block at their first record's address.
func (f *MemoryFile) Add(recs ...Record) *MemoryFile {
	if len(recs) == 0 {
		return f
	}
	addr := recs[0].Address()
	f.records[addr] = append(f.records[addr], recs...)
	return f
}

// AddBlock stores raw bytes at addr.
func (f *MemoryFile) AddBlock(addr Address, data []byte) *MemoryFile {
	f.blocks[addr] = data
	return f
}

// AddString stores a NUL-terminated string block at addr.
func (f *MemoryFile) AddString(addr Address, s string) *MemoryFile {
	return f.AddBlock(addr, append([]byte(s), 0))
}

// AddInt32s stores an int32 array block at addr.
func (f *MemoryFile) AddInt32s(addr Address, values ...int32) *MemoryFile {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		f.order.PutUint32(buf[i*4:], uint32(v))
	}
	return f.AddBlock(addr, buf)
}

// AddFloat32s stores a float32 array block at addr.
func (f *MemoryFile) AddFloat32s(addr Address, values ...float32) *MemoryFile {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		f.order.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return f.AddBlock(addr, buf)
}

// AddFloat64s stores a float64 array block at addr.
func (f *MemoryFile) AddFloat64s(addr Address, values ...float64) *MemoryFile {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		f.order.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return f.AddBlock(addr, buf)
}

// Fetch returns the records at addr.
func (f *MemoryFile) Fetch(addr Address) ([]Record, error) {
	f.fetches++
	if addr.IsNull() {
		return nil, fmt.Errorf("%w: null pointer", ErrBrokenReference)
	}
	recs, ok := f.records[addr]
	if !ok {
		return nil, fmt.Errorf("%w: no structure at %s", ErrBrokenReference, addr)
	}
	return recs, nil
}

// Block returns the raw bytes at addr.
func (f *MemoryFile) Block(addr Address) ([]byte, error) {
	if addr.IsNull() {
		return nil, fmt.Errorf("%w: null pointer", ErrBrokenReference)
	}
	data, ok := f.blocks[addr]
	if !ok {
		return nil, fmt.Errorf("%w: no block at %s", ErrBrokenReference, addr)
	}
	return data, nil
}

// ByteOrder returns the file byte order.
func (f *MemoryFile) ByteOrder() binary.ByteOrder {
	return f.order
}

// Fetches returns how many times Fetch was called.
func (f *MemoryFile) Fetches() int {
	return f.fetches
}

// RecordsOfType returns every record of the given type ordered by address.
func (f *MemoryFile) RecordsOfType(typ string) []Record {
	var out []Record
	for _, recs := range f.records {
		for _, r := range recs {
			if r.Type() == typ {
				out = append(out, r)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Address() < out[j].Address()
	})
	return out
}
