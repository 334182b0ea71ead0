package importer

import (
	"github.com/Faultbox/blendscene/internal/config"
	"github.com/Faultbox/blendscene/pkg/blend"
	"github.com/Faultbox/blendscene/pkg/math"
)

const tol = 1e-5

func vec(x, y, z float64) blend.DynamicArray {
	return blend.DynamicArray{Dims: []int{3}, Values: []float64{x, y, z}}
}

func mat(m math.Mat4) blend.DynamicArray {
	vals := make([]float64, len(m))
	for i, v := range m {
		vals[i] = float64(v)
	}
	return blend.DynamicArray{Dims: []int{4, 4}, Values: vals}
}

func listBase(first, last blend.Address) *blend.Structure {
	return blend.NewStructure(blend.Null, "ListBase").
		Set("first", blend.Pointer(first)).
		Set("last", blend.Pointer(last))
}

// object returns an Object record at the origin with unit size on layer 1.
func object(addr blend.Address, name string, typ int) *blend.Structure {
	id := blend.NewStructure(blend.Null, "ID").
		Set("name", blend.String("OB"+name)).
		Set("properties", blend.Pointer(blend.Null))
	return blend.NewStructure(addr, "Object").
		Set("id", id).
		Set("type", blend.Number(typ)).
		Set("lay", blend.Number(1)).
		Set("restrictflag", blend.Number(0)).
		Set("parent", blend.Pointer(blend.Null)).
		Set("data", blend.Pointer(blend.Null)).
		Set("loc", vec(0, 0, 0)).
		Set("rot", vec(0, 0, 0)).
		Set("size", vec(1, 1, 1)).
		Set("parentinv", mat(math.Identity())).
		Set("obmat", mat(math.Identity())).
		Set("modifiers", listBase(blend.Null, blend.Null)).
		Set("constraints", listBase(blend.Null, blend.Null))
}

func withParent(obj *blend.Structure, parent blend.Address) *blend.Structure {
	return obj.Set("parent", blend.Pointer(parent))
}

func withProperties(obj *blend.Structure, props blend.Address) *blend.Structure {
	id, _ := blend.RecordField(obj, "id")
	id.(*blend.Structure).Set("properties", blend.Pointer(props))
	return obj
}

// idProp returns an IDProperty record.
func idProp(addr blend.Address, name string, tag int, val int32, pointer, first, last, next blend.Address) *blend.Structure {
	data := blend.NewStructure(blend.Null, "IDPropertyData").
		Set("pointer", blend.Pointer(pointer)).
		Set("group", listBase(first, last)).
		Set("val", blend.Number(val)).
		Set("val2", blend.Number(0))
	return blend.NewStructure(addr, "IDProperty").
		Set("name", blend.String(name)).
		Set("type", blend.Number(tag)).
		Set("subtype", blend.Number(0)).
		Set("next", blend.Pointer(next)).
		Set("data", data)
}

func noFixUp() config.ImportConfig {
	cfg := config.DefaultImport()
	cfg.FixUpAxis = false
	return cfg
}
