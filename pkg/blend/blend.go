// Package blend provides the record model for memory-dump-style scene files:
// typed structures whose pointer fields hold stale addresses from the
// producing process.
package blend

import (
	"errors"
	"fmt"
)

// Record access errors.
var (
	ErrBrokenReference = errors.New("broken reference")
	ErrFieldNotFound   = errors.New("field not found")
	ErrFieldType       = errors.New("unexpected field type")
	ErrCyclicList      = errors.New("cyclic list base")
)

// Address is the old memory address a record had in the process that wrote
// the file. It is only ever used as an identity key.
type Address uint64

// Null is the null pointer.
const Null Address = 0

// IsNull reports whether the address is the null pointer.
func (a Address) IsNull() bool {
	return a == Null
}

// String returns the address in hex.
func (a Address) String() string {
	return fmt.Sprintf("0x%x", uint64(a))
}

// Value is a field value read from a record. It is one of Number, String,
// Pointer, DynamicArray or *Structure.
type Value interface {
	isValue()
}

// Number is a numeric field. Integer fields are stored exactly.
type Number float64

// Int returns the value as an integer.
func (n Number) Int() int64 { return int64(n) }

// Int32 returns the value as a 32-bit integer.
func (n Number) Int32() int32 { return int32(int64(n)) }

// Float32 returns the value as a float32.
func (n Number) Float32() float32 { return float32(n) }

// String is a fixed-size char array field.
type String string

// Pointer is a pointer field holding an old memory address.
type Pointer Address

// Address returns the pointed-to address.
func (p Pointer) Address() Address { return Address(p) }

// IsNull reports whether the pointer is null.
func (p Pointer) IsNull() bool { return Address(p).IsNull() }

// DynamicArray is a numeric array field such as float loc[3] or
// float obmat[4][4]. Values are stored flat in declaration order.
type DynamicArray struct {
	Dims   []int
	Values []float64
}

// Len returns the total number of elements.
func (a DynamicArray) Len() int {
	return len(a.Values)
}

// At returns the element at the given indices, row-major over Dims.
func (a DynamicArray) At(indices ...int) (float64, error) {
	dims := a.Dims
	if len(dims) == 0 {
		dims = []int{len(a.Values)}
	}
	if len(indices) != len(dims) {
		return 0, fmt.Errorf("%w: %d indices for %d dimensions", ErrFieldType, len(indices), len(dims))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= dims[i] {
			return 0, fmt.Errorf("index %d out of range [0,%d)", idx, dims[i])
		}
		offset = offset*dims[i] + idx
	}
	if offset >= len(a.Values) {
		return 0, fmt.Errorf("index %v beyond %d elements", indices, len(a.Values))
	}
	return a.Values[offset], nil
}

// Float32s returns the elements converted to float32.
func (a DynamicArray) Float32s() []float32 {
	out := make([]float32, len(a.Values))
	for i, v := range a.Values {
		out[i] = float32(v)
	}
	return out
}

func (Number) isValue()       {}
func (String) isValue()       {}
func (Pointer) isValue()      {}
func (DynamicArray) isValue() {}
func (*Structure) isValue()   {}
