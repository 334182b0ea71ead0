package blend

import (
	"fmt"
	"sort"
	"strings"
)

// Record is a named-field view over one structure in the file.
type Record interface {
	// Address returns the old memory address of the record.
	Address() Address
	// Type returns the structure type name, e.g. "Object".
	Type() string
	// Name returns the ID name without its two-letter code, or "".
	Name() string
	// Field returns the value of a named field.
	Field(name string) (Value, error)
}

// Structure is an in-memory Record.
type Structure struct {
	addr   Address
	typ    string
	fields map[string]Value
}

// NewStructure creates an empty structure of the given type.
func NewStructure(addr Address, typ string) *Structure {
	return &Structure{
		addr:   addr,
		typ:    typ,
		fields: make(map[string]Value),
	}
}

// Set stores a field value and returns the structure for chaining.
func (s *Structure) Set(name string, v Value) *Structure {
	s.fields[name] = v
	return s
}

// Address returns the old memory address of the structure.
func (s *Structure) Address() Address { return s.addr }

// Type returns the structure type name.
func (s *Structure) Type() string { return s.typ }

// Field returns the value of a named field.
func (s *Structure) Field(name string) (Value, error) {
	v, ok := s.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrFieldNotFound, s.typ, name)
	}
	return v, nil
}

// FieldNames returns the field names in sorted order.
func (s *Structure) FieldNames() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Name returns the ID name. Names stored in a nested "id" block carry a
// two-letter type code ("OBCube") that is stripped.
func (s *Structure) Name() string {
	if id, err := RecordField(s, "id"); err == nil {
		if name, err := StringField(id, "name"); err == nil {
			if len(name) > 2 && isIDCode(name[:2]) {
				return name[2:]
			}
			return name
		}
	}
	if name, err := StringField(s, "name"); err == nil {
		return name
	}
	return ""
}

func isIDCode(code string) bool {
	return strings.ToUpper(code) == code && code[0] >= 'A' && code[0] <= 'Z'
}

// Lookup resolves a dotted field path such as "data.val" through nested
// structures.
func Lookup(r Record, path string) (Value, error) {
	parts := strings.Split(path, ".")
	cur := r
	for i, part := range parts {
		v, err := cur.Field(part)
		if err != nil {
			return nil, err
		}
		if i == len(parts)-1 {
			return v, nil
		}
		next, ok := v.(Record)
		if !ok {
			return nil, fmt.Errorf("%w: %s is %T, not a structure", ErrFieldType, part, v)
		}
		cur = next
	}
	return nil, fmt.Errorf("%w: empty path", ErrFieldNotFound)
}

// NumberField reads a numeric field (dotted paths allowed).
func NumberField(r Record, name string) (Number, error) {
	v, err := Lookup(r, name)
	if err != nil {
		return 0, err
	}
	n, ok := v.(Number)
	if !ok {
		return 0, fmt.Errorf("%w: %s is %T, want number", ErrFieldType, name, v)
	}
	return n, nil
}

// IntField reads a numeric field as an integer.
func IntField(r Record, name string) (int64, error) {
	n, err := NumberField(r, name)
	return n.Int(), err
}

// StringField reads a string field.
func StringField(r Record, name string) (string, error) {
	v, err := Lookup(r, name)
	if err != nil {
		return "", err
	}
	s, ok := v.(String)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, want string", ErrFieldType, name, v)
	}
	return string(s), nil
}

// PointerField reads a pointer field.
func PointerField(r Record, name string) (Pointer, error) {
	v, err := Lookup(r, name)
	if err != nil {
		return 0, err
	}
	p, ok := v.(Pointer)
	if !ok {
		return 0, fmt.Errorf("%w: %s is %T, want pointer", ErrFieldType, name, v)
	}
	return p, nil
}

// ArrayField reads a numeric array field.
func ArrayField(r Record, name string) (DynamicArray, error) {
	v, err := Lookup(r, name)
	if err != nil {
		return DynamicArray{}, err
	}
	a, ok := v.(DynamicArray)
	if !ok {
		return DynamicArray{}, fmt.Errorf("%w: %s is %T, want array", ErrFieldType, name, v)
	}
	return a, nil
}

// RecordField reads a nested structure field.
func RecordField(r Record, name string) (Record, error) {
	v, err := Lookup(r, name)
	if err != nil {
		return nil, err
	}
	rec, ok := v.(Record)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, want structure", ErrFieldType, name, v)
	}
	return rec, nil
}
