package properties

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/blendscene/pkg/blend"
)

// fixture builds IDProperty records in an in-memory file.
type fixture struct {
	f *blend.MemoryFile
}

func newFixture() *fixture {
	return &fixture{f: blend.NewMemoryFile(nil)}
}

func listBase(first, last blend.Address) *blend.Structure {
	return blend.NewStructure(blend.Null, "ListBase").
		Set("first", blend.Pointer(first)).
		Set("last", blend.Pointer(last))
}

type propData struct {
	pointer   blend.Address
	first     blend.Address
	last      blend.Address
	val, val2 int32
	subtype   int
	next      blend.Address
}

func (fx *fixture) prop(addr blend.Address, name string, tag int, d propData) *blend.Structure {
	data := blend.NewStructure(blend.Null, "IDPropertyData").
		Set("pointer", blend.Pointer(d.pointer)).
		Set("group", listBase(d.first, d.last)).
		Set("val", blend.Number(d.val)).
		Set("val2", blend.Number(d.val2))
	s := blend.NewStructure(addr, "IDProperty").
		Set("name", blend.String(name)).
		Set("type", blend.Number(tag)).
		Set("subtype", blend.Number(d.subtype)).
		Set("next", blend.Pointer(d.next)).
		Set("data", data)
	fx.f.Add(s)
	return s
}

func floatBits(f float32) int32 {
	return int32(math.Float32bits(f))
}

func TestParseScalars(t *testing.T) {
	fx := newFixture()
	fx.f.AddString(0x900, "crate")

	bits := math.Float64bits(1.1)
	lo := int32(uint32(bits))
	hi := int32(uint32(bits >> 32))
	require.Less(t, lo, int32(0), "low half should have its sign bit set")

	tests := []struct {
		name string
		rec  *blend.Structure
		typ  Type
		want any
	}{
		{"string", fx.prop(0x10, "label", tagString, propData{pointer: 0x900}), TypeString, "crate"},
		{"int", fx.prop(0x20, "count", tagInt, propData{val: -7}), TypeInt, int32(-7)},
		{"float", fx.prop(0x30, "length", tagFloat, propData{val: floatBits(1.5)}), TypeFloat, float32(1.5)},
		{"double", fx.prop(0x40, "weight", tagDouble, propData{val: lo, val2: hi}), TypeDouble, 1.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Parse(fx.f, tt.rec)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, n.Type)
			assert.Equal(t, tt.want, n.Value())
			assert.Nil(t, n.Description)
		})
	}
}

func TestParseArrays(t *testing.T) {
	fx := newFixture()
	fx.f.AddInt32s(0x900, 1, -2, 3)
	fx.f.AddFloat32s(0xa00, 0.5, 1.5)
	fx.f.AddFloat64s(0xb00, 2.25)

	ints, err := Parse(fx.f, fx.prop(0x10, "ints", tagArray, propData{pointer: 0x900, subtype: tagInt}))
	require.NoError(t, err)
	assert.Equal(t, TypeIntArray, ints.Type)
	assert.Equal(t, []int32{1, -2, 3}, ints.Ints)

	floats, err := Parse(fx.f, fx.prop(0x20, "floats", tagArray, propData{pointer: 0xa00, subtype: tagFloat}))
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 1.5}, floats.Floats)

	doubles, err := Parse(fx.f, fx.prop(0x30, "doubles", tagArray, propData{pointer: 0xb00, subtype: tagDouble}))
	require.NoError(t, err)
	assert.Equal(t, []float64{2.25}, doubles.Doubles)

	_, err = Parse(fx.f, fx.prop(0x40, "strings", tagArray, propData{pointer: 0x900, subtype: tagString}))
	assert.True(t, errors.Is(err, ErrUnsupportedPropertyType))
}

func TestParseArrayBigEndian(t *testing.T) {
	fx := &fixture{f: blend.NewMemoryFile(binary.BigEndian)}
	fx.f.AddInt32s(0x900, 258)

	n, err := Parse(fx.f, fx.prop(0x10, "ints", tagArray, propData{pointer: 0x900, subtype: tagInt}))
	require.NoError(t, err)
	assert.Equal(t, []int32{258}, n.Ints)
}

func TestParseGroupSkipsUnsupportedArray(t *testing.T) {
	fx := newFixture()
	fx.prop(0x100, "a", tagInt, propData{val: 1, next: 0x200})
	fx.prop(0x200, "bad", tagArray, propData{subtype: 99, next: 0x300})
	fx.prop(0x300, "c", tagInt, propData{val: 3})
	root := fx.prop(0x10, "", tagGroup, propData{first: 0x100, last: 0x300})

	var skipped []string
	p := NewParser(fx.f, WithSkipHandler(func(addr blend.Address, name string, err error) {
		assert.True(t, errors.Is(err, ErrUnsupportedPropertyType))
		skipped = append(skipped, name)
	}))

	n, err := p.Parse(root)
	require.NoError(t, err)
	require.Len(t, n.Children, 2)
	assert.Equal(t, "a", n.Children[0].Name)
	assert.Equal(t, "c", n.Children[1].Name)
	assert.Equal(t, []string{"bad"}, skipped)
}

func TestParseUnknownScalarIsPlaceholder(t *testing.T) {
	fx := newFixture()
	n, err := Parse(fx.f, fx.prop(0x10, "mystery", 42, propData{}))
	require.NoError(t, err)
	assert.Equal(t, TypeUnsupported, n.Type)
	assert.Nil(t, n.Value())

	id, err := Parse(fx.f, fx.prop(0x20, "ref", tagID, propData{}))
	require.NoError(t, err)
	assert.Equal(t, TypeUnsupported, id.Type)
}

func TestGroupArrayFlattening(t *testing.T) {
	fx := newFixture()
	fx.prop(0x500, "e0", tagFloat, propData{val: floatBits(1)})
	// the three elements share one block, like a C array of structures
	for i, v := range []float32{2, 3} {
		s := blend.NewStructure(0x500, "IDProperty").
			Set("name", blend.String("e"+string(rune('1'+i)))).
			Set("type", blend.Number(tagFloat)).
			Set("subtype", blend.Number(0)).
			Set("data", blend.NewStructure(blend.Null, "IDPropertyData").Set("val", blend.Number(floatBits(v))))
		fx.f.Add(s)
	}

	n, err := Parse(fx.f, fx.prop(0x10, "list", tagGroupArray, propData{pointer: 0x500}))
	require.NoError(t, err)
	assert.Equal(t, TypeGroupArray, n.Type)
	assert.Equal(t, []any{float32(1), float32(2), float32(3)}, n.Items)
}

func TestMetadataMerge(t *testing.T) {
	fx := newFixture()
	fx.f.AddString(0x990, "len")
	fx.prop(0x100, "X", tagFloat, propData{val: floatBits(1), next: 0x200})
	fx.prop(0x200, MetadataKey, tagGroup, propData{first: 0x300, last: 0x300})
	fx.prop(0x300, "X", tagGroup, propData{first: 0x400, last: 0x400})
	fx.prop(0x400, "description", tagString, propData{pointer: 0x990})
	root := fx.prop(0x10, "", tagGroup, propData{first: 0x100, last: 0x200})

	n, err := Parse(fx.f, root)
	require.NoError(t, err)
	require.Len(t, n.Children, 2)

	PostProcess(n)
	require.Len(t, n.Children, 1)
	x := n.Children[0]
	assert.Equal(t, "X", x.Name)
	assert.Equal(t, float32(1), x.Float)
	require.NotNil(t, x.Description)
	assert.Equal(t, "len", *x.Description)
	assert.Nil(t, n.Child(MetadataKey))
}

func TestMetadataMergeNested(t *testing.T) {
	meta := &Node{Name: MetadataKey, Type: TypeGroup, Children: []*Node{
		{Name: "y", Type: TypeGroup, Children: []*Node{
			{Name: "description", Type: TypeString, Str: "inner"},
		}},
		{Name: "ghost", Type: TypeGroup, Children: []*Node{
			{Name: "description", Type: TypeString, Str: "nobody"},
		}},
	}}
	inner := &Node{Name: "inner", Type: TypeGroup, Children: []*Node{
		{Name: "y", Type: TypeInt, Int: 2},
		{Name: "z", Type: TypeInt, Int: 3},
		meta,
	}}
	root := &Node{Type: TypeGroup, Children: []*Node{inner}}

	PostProcess(root)

	require.Len(t, inner.Children, 2)
	require.NotNil(t, inner.Child("y").Description)
	assert.Equal(t, "inner", *inner.Child("y").Description)
	assert.Nil(t, inner.Child("z").Description)
}

func TestMetadataDescriptionIgnoresCase(t *testing.T) {
	meta := &Node{Name: MetadataKey, Type: TypeGroup, Children: []*Node{
		{Name: "speed", Type: TypeGroup, Children: []*Node{
			{Name: "Description", Type: TypeString, Str: "units per second"},
		}},
	}}
	root := &Node{Type: TypeGroup, Children: []*Node{
		{Name: "speed", Type: TypeFloat, Float: 4},
		meta,
	}}

	PostProcess(root)

	require.Len(t, root.Children, 1)
	require.NotNil(t, root.Children[0].Description)
	assert.Equal(t, "units per second", *root.Children[0].Description)
}

func TestParseEmptyArrays(t *testing.T) {
	fx := newFixture()
	fx.prop(0x100, "ints", tagArray, propData{subtype: tagInt, next: 0x200})
	fx.prop(0x200, "floats", tagArray, propData{subtype: tagFloat, next: 0x300})
	fx.prop(0x300, "doubles", tagArray, propData{subtype: tagDouble})
	root := fx.prop(0x10, "", tagGroup, propData{first: 0x100, last: 0x300})

	var skipped []string
	p := NewParser(fx.f, WithSkipHandler(func(addr blend.Address, name string, err error) {
		skipped = append(skipped, name)
	}))

	n, err := p.Parse(root)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, n.Children, 3)

	assert.Equal(t, TypeIntArray, n.Child("ints").Type)
	assert.NotNil(t, n.Child("ints").Ints)
	assert.Empty(t, n.Child("ints").Ints)
	assert.Equal(t, TypeFloatArray, n.Child("floats").Type)
	assert.Empty(t, n.Child("floats").Floats)
	assert.Equal(t, TypeDoubleArray, n.Child("doubles").Type)
	assert.Empty(t, n.Child("doubles").Doubles)
}

func TestPostProcessNoMetadata(t *testing.T) {
	root := &Node{Type: TypeGroup, Children: []*Node{{Name: "a", Type: TypeInt}}}
	PostProcess(root)
	assert.Len(t, root.Children, 1)
	assert.Nil(t, PostProcess(nil))
}

func TestDepthLimit(t *testing.T) {
	fx := newFixture()
	// each group holds the next one: 0x100 -> 0x200 -> 0x300 -> 0x400
	fx.prop(0x100, "g1", tagGroup, propData{first: 0x200, last: 0x200})
	fx.prop(0x200, "g2", tagGroup, propData{first: 0x300, last: 0x300})
	fx.prop(0x300, "g3", tagGroup, propData{first: 0x400, last: 0x400})
	fx.prop(0x400, "leaf", tagInt, propData{val: 1})
	root, err := fx.f.Fetch(0x100)
	require.NoError(t, err)

	_, err = NewParser(fx.f, WithMaxDepth(2)).Parse(root[0])
	assert.True(t, errors.Is(err, ErrPropertyDepth))

	n, err := NewParser(fx.f, WithMaxDepth(3)).Parse(root[0])
	require.NoError(t, err)
	assert.Equal(t, int32(1), n.Children[0].Children[0].Children[0].Int)
}

func TestFlatten(t *testing.T) {
	root := &Node{Type: TypeGroup, Children: []*Node{
		{Name: "s", Type: TypeString, Str: "x"},
		{Name: "f", Type: TypeFloat, Float: 2},
		{Name: "arr", Type: TypeIntArray, Ints: []int32{1}},
		{Name: "g", Type: TypeGroup},
	}}
	assert.Equal(t, map[string]any{"s": "x", "f": float32(2)}, root.Flatten())
	assert.Empty(t, (&Node{Type: TypeInt}).Flatten())
}

func TestMarshalYAML(t *testing.T) {
	desc := "len"
	root := &Node{Type: TypeGroup, Children: []*Node{
		{Name: "X", Type: TypeFloat, Float: 1, Description: &desc},
		{Name: "tags", Type: TypeGroupArray, Items: []any{"a", "b"}},
	}}

	out, err := yaml.Marshal(root)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "X:")
	assert.Contains(t, text, "# len")
	assert.Contains(t, text, "- a")
}
