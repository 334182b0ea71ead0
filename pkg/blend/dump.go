package blend

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
)

// Dump is the JSON form of a record dump: the structures and raw blocks
// needed to resolve an object graph without the original file.
type Dump struct {
	ByteOrder string       `json:"byteOrder"`
	Records   []DumpRecord `json:"records"`
	Blocks    []DumpBlock  `json:"blocks"`
}

// DumpRecord is one structure of a dump. Records sharing an address form an
// array block in the order they appear.
type DumpRecord struct {
	Address Address                    `json:"address"`
	Type    string                     `json:"type"`
	Fields  map[string]json.RawMessage `json:"fields"`
}

// DumpBlock is one raw block. Exactly one of the payload fields is set.
type DumpBlock struct {
	Address Address   `json:"address"`
	Hex     string    `json:"hex,omitempty"`
	String  *string   `json:"string,omitempty"`
	Int32   []int32   `json:"int32,omitempty"`
	Float32 []float32 `json:"float32,omitempty"`
	Float64 []float64 `json:"float64,omitempty"`
}

// dumpValue is the object form of a non-scalar field value.
type dumpValue struct {
	Ptr    *Address                   `json:"ptr"`
	Record map[string]json.RawMessage `json:"record"`
	Type   string                     `json:"type"`
	Array  []float64                  `json:"array"`
	Dims   []int                      `json:"dims"`
}

// LoadDumpFile reads a JSON record dump from disk.
func LoadDumpFile(path string) (*MemoryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dump file: %w", err)
	}
	return LoadDump(bytes.NewReader(data))
}

// LoadDump reads a JSON record dump into a MemoryFile.
func LoadDump(r io.Reader) (*MemoryFile, error) {
	var d Dump
	dec := json.NewDecoder(r)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decoding dump: %w", err)
	}

	var order binary.ByteOrder = binary.LittleEndian
	switch strings.ToLower(d.ByteOrder) {
	case "", "little", "le":
	case "big", "be":
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("unknown byte order %q", d.ByteOrder)
	}
	f := NewMemoryFile(order)

	for i, dr := range d.Records {
		s, err := decodeStructure(dr.Address, dr.Type, dr.Fields)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s at %s): %w", i, dr.Type, dr.Address, err)
		}
		f.Add(s)
	}

	for i, b := range d.Blocks {
		switch {
		case b.Hex != "":
			data, err := hex.DecodeString(b.Hex)
			if err != nil {
				return nil, fmt.Errorf("block %d at %s: %w", i, b.Address, err)
			}
			f.AddBlock(b.Address, data)
		case b.String != nil:
			f.AddString(b.Address, *b.String)
		case b.Int32 != nil:
			f.AddInt32s(b.Address, b.Int32...)
		case b.Float32 != nil:
			f.AddFloat32s(b.Address, b.Float32...)
		case b.Float64 != nil:
			f.AddFloat64s(b.Address, b.Float64...)
		default:
			f.AddBlock(b.Address, nil)
		}
	}
	return f, nil
}

func decodeStructure(addr Address, typ string, fields map[string]json.RawMessage) (*Structure, error) {
	s := NewStructure(addr, typ)
	for name, raw := range fields {
		v, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		s.Set(name, v)
	}
	return s, nil
}

func decodeValue(raw json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty value")
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case '{':
		var dv dumpValue
		if err := json.Unmarshal(trimmed, &dv); err != nil {
			return nil, err
		}
		switch {
		case dv.Ptr != nil:
			return Pointer(*dv.Ptr), nil
		case dv.Record != nil:
			return decodeStructure(Null, dv.Type, dv.Record)
		case dv.Array != nil:
			return DynamicArray{Dims: dv.Dims, Values: dv.Array}, nil
		default:
			return nil, fmt.Errorf("object value needs ptr, record or array")
		}
	case '[':
		var values []float64
		if err := json.Unmarshal(trimmed, &values); err != nil {
			return nil, err
		}
		return DynamicArray{Values: values}, nil
	default:
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return nil, err
		}
		return Number(n), nil
	}
}
