package blend

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructureFields(t *testing.T) {
	id := NewStructure(Null, "ID").Set("name", String("OBCube"))
	s := NewStructure(0x10, "Object").
		Set("id", id).
		Set("type", Number(1)).
		Set("parent", Pointer(0x20)).
		Set("loc", DynamicArray{Values: []float64{1, 2, 3}})

	assert.Equal(t, "Cube", s.Name())
	assert.Equal(t, "Object", s.Type())
	assert.Equal(t, Address(0x10), s.Address())

	typ, err := IntField(s, "type")
	require.NoError(t, err)
	assert.Equal(t, int64(1), typ)

	p, err := PointerField(s, "parent")
	require.NoError(t, err)
	assert.Equal(t, Address(0x20), p.Address())

	name, err := StringField(s, "id.name")
	require.NoError(t, err)
	assert.Equal(t, "OBCube", name)

	_, err = NumberField(s, "missing")
	assert.True(t, errors.Is(err, ErrFieldNotFound))

	_, err = PointerField(s, "type")
	assert.True(t, errors.Is(err, ErrFieldType))

	_, err = NumberField(s, "type.val")
	assert.True(t, errors.Is(err, ErrFieldType))
}

func TestStructureNameWithoutCode(t *testing.T) {
	s := NewStructure(0x10, "IDProperty").Set("name", String("length"))
	assert.Equal(t, "length", s.Name())

	anon := NewStructure(0x11, "ListBase")
	assert.Equal(t, "", anon.Name())
}

func TestDynamicArrayAt(t *testing.T) {
	a := DynamicArray{Dims: []int{2, 3}, Values: []float64{0, 1, 2, 10, 11, 12}}

	v, err := a.At(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)

	_, err = a.At(2, 0)
	assert.Error(t, err)

	_, err = a.At(1)
	assert.Error(t, err)

	flat := DynamicArray{Values: []float64{4, 5}}
	v, err = flat.At(1)
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)
}

func TestMemoryFileFetch(t *testing.T) {
	f := NewMemoryFile(nil)
	f.Add(NewStructure(0x100, "Object"))

	recs, err := f.Fetch(0x100)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	_, err = f.Fetch(0x200)
	assert.True(t, errors.Is(err, ErrBrokenReference))

	_, err = f.Fetch(Null)
	assert.True(t, errors.Is(err, ErrBrokenReference))

	assert.Equal(t, 3, f.Fetches())
	assert.Equal(t, binary.LittleEndian, f.ByteOrder())
}

func TestMemoryFileBlocks(t *testing.T) {
	f := NewMemoryFile(binary.BigEndian)
	f.AddString(0x10, "hello").AddInt32s(0x20, 1, -2)

	data, err := f.Block(0x10)
	require.NoError(t, err)
	assert.Equal(t, "hello", CString(data))

	data, err = f.Block(0x20)
	require.NoError(t, err)
	require.Len(t, data, 8)
	assert.Equal(t, int32(-2), int32(binary.BigEndian.Uint32(data[4:])))

	_, err = f.Block(0x30)
	assert.True(t, errors.Is(err, ErrBrokenReference))
}

func TestRecordsOfType(t *testing.T) {
	f := NewMemoryFile(nil)
	f.Add(NewStructure(0x300, "Object"))
	f.Add(NewStructure(0x100, "Object"))
	f.Add(NewStructure(0x200, "Mesh"))

	objs := f.RecordsOfType("Object")
	require.Len(t, objs, 2)
	assert.Equal(t, Address(0x100), objs[0].Address())
	assert.Equal(t, Address(0x300), objs[1].Address())
}

func listElem(addr, next Address) *Structure {
	return NewStructure(addr, "Link").Set("next", Pointer(next))
}

func TestListBase(t *testing.T) {
	f := NewMemoryFile(nil)
	f.Add(listElem(0x10, 0x20)).Add(listElem(0x20, 0x30)).Add(listElem(0x30, Null))
	lb := NewStructure(Null, "ListBase").Set("first", Pointer(0x10)).Set("last", Pointer(0x30))

	recs, err := ListBase(f, lb)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, Address(0x30), recs[2].Address())

	empty := NewStructure(Null, "ListBase").Set("first", Pointer(Null))
	recs, err = ListBase(f, empty)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestListBaseCycle(t *testing.T) {
	f := NewMemoryFile(nil)
	f.Add(listElem(0x10, 0x20)).Add(listElem(0x20, 0x10))
	lb := NewStructure(Null, "ListBase").Set("first", Pointer(0x10))

	recs, err := ListBase(f, lb)
	assert.True(t, errors.Is(err, ErrCyclicList))
	assert.Len(t, recs, 2)
}

func TestLoadDumpFile(t *testing.T) {
	f, err := LoadDumpFile("testdata/scene.json")
	require.NoError(t, err)

	objs := f.RecordsOfType("Object")
	require.Len(t, objs, 2)
	assert.Equal(t, "Root", objs[0].Name())
	assert.Equal(t, "Cube", objs[1].Name())

	parent, err := PointerField(objs[1], "parent")
	require.NoError(t, err)
	assert.Equal(t, objs[0].Address(), parent.Address())

	obmat, err := ArrayField(objs[1], "obmat")
	require.NoError(t, err)
	assert.Equal(t, 16, obmat.Len())
	v, err := obmat.At(3, 2)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)

	props, err := PointerField(objs[1], "id.properties")
	require.NoError(t, err)
	prop, err := FetchOne(f, props.Address())
	require.NoError(t, err)
	group, err := RecordField(prop, "data.group")
	require.NoError(t, err)
	children, err := ListBase(f, group)
	require.NoError(t, err)
	assert.Len(t, children, 2)

	label, err := f.Block(0x7200)
	require.NoError(t, err)
	assert.Equal(t, "crate", CString(label))
}

func TestLoadDumpErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"bad json", `{"records": [`},
		{"bad byte order", `{"byteOrder": "middle"}`},
		{"bad object value", `{"records": [{"address": 1, "type": "X", "fields": {"f": {"nope": 1}}}]}`},
		{"bad hex", `{"blocks": [{"address": 1, "hex": "zz"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDump(strings.NewReader(tt.json))
			assert.Error(t, err)
		})
	}
}

