package blend

import (
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/blendscene/pkg/encoding"
)

// Accessor resolves old memory addresses into the records and raw bytes of
// the file. Implementations are owned by one import session.
type Accessor interface {
	// Fetch returns the records stored in the block at addr. A null or
	// unknown address fails with ErrBrokenReference.
	Fetch(addr Address) ([]Record, error)
	// Block returns the raw bytes of the block starting at addr.
	Block(addr Address) ([]byte, error)
	// ByteOrder is the byte order the file was written with.
	ByteOrder() binary.ByteOrder
}

// Lister is implemented by accessors that can enumerate records by type.
type Lister interface {
	RecordsOfType(typ string) []Record
}

// FetchOne returns the first record of the block at addr.
func FetchOne(acc Accessor, addr Address) (Record, error) {
	recs, err := acc.Fetch(addr)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: empty block at %s", ErrBrokenReference, addr)
	}
	return recs[0], nil
}

// ListBase walks a {first, last} list base through each element's "next"
// pointer and returns the elements in order.
func ListBase(acc Accessor, lb Record) ([]Record, error) {
	first, err := PointerField(lb, "first")
	if err != nil {
		return nil, err
	}

	var out []Record
	seen := make(map[Address]bool)
	for addr := first.Address(); !addr.IsNull(); {
		if seen[addr] {
			return out, fmt.Errorf("%w: %s revisited", ErrCyclicList, addr)
		}
		seen[addr] = true

		rec, err := FetchOne(acc, addr)
		if err != nil {
			return out, fmt.Errorf("list element %s: %w", addr, err)
		}
		out = append(out, rec)

		next, err := PointerField(rec, "next")
		if err != nil {
			break
		}
		addr = next.Address()
	}
	return out, nil
}

// CString reads a NUL-terminated name from the start of data.
func CString(data []byte) string {
	return encoding.CString(data)
}
