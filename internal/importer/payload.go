package importer

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/blendscene/internal/scene"
	"github.com/Faultbox/blendscene/pkg/blend"
	"github.com/Faultbox/blendscene/pkg/math"
)

// User-data keys written by the default collaborators and the builder.
const (
	PropertiesKey  = "properties"
	ModifiersKey   = "modifiers"
	ConstraintsKey = "constraints"
)

// PayloadRequest is what a payload builder is given for one object.
type PayloadRequest struct {
	// Node is the node being built. Builders set its Payload and Geometry
	// or attach children to it.
	Node   *scene.Node
	Record blend.Record
	// Parent is the resolved parent node, nil for roots.
	Parent *scene.Node
	Cache  *FeatureCache
	Log    *zap.Logger
}

// PayloadBuilder builds the kind-specific content of an object node.
type PayloadBuilder interface {
	BuildPayload(req PayloadRequest) error
}

// PayloadBuilderFunc adapts a function to PayloadBuilder.
type PayloadBuilderFunc func(req PayloadRequest) error

// BuildPayload calls f(req).
func (f PayloadBuilderFunc) BuildPayload(req PayloadRequest) error {
	return f(req)
}

// ModifierApplier reads an object's modifiers and applies them to its node.
type ModifierApplier interface {
	ApplyModifiers(node *scene.Node, rec blend.Record) error
}

// ConstraintLoader reads an object's constraints.
type ConstraintLoader interface {
	LoadConstraints(node *scene.Node, rec blend.Record) error
}

// DataBlock is the default payload: a reference to the object's data
// record. Objects that share data share one DataBlock.
type DataBlock struct {
	Address blend.Address
	Type    string
	Name    string
	Record  blend.Record
	// Bounds is the data's texture space box, when the record carries one.
	Bounds *scene.Bounds
}

// NewDataBlock wraps a data record.
func NewDataBlock(rec blend.Record) *DataBlock {
	db := &DataBlock{
		Address: rec.Address(),
		Type:    rec.Type(),
		Name:    rec.Name(),
		Record:  rec,
	}
	if b, ok := texSpace(rec); ok {
		db.Bounds = &b
	}
	return db
}

// texSpace reads the loc/size texture space of mesh and curve data, which
// is the box centered on loc with half extents size.
func texSpace(rec blend.Record) (scene.Bounds, bool) {
	loc, err := vec3Field(rec, "loc")
	if err != nil {
		return scene.Bounds{}, false
	}
	size, err := vec3Field(rec, "size")
	if err != nil {
		return scene.Bounds{}, false
	}
	half := math.Vec3{X: abs(size.X), Y: abs(size.Y), Z: abs(size.Z)}
	return scene.Bounds{Min: loc.Sub(half), Max: loc.Add(half)}, true
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

// DataPayload resolves the object's data pointer through the cache and
// stores the shared DataBlock as the node payload. A null data pointer
// leaves the node without payload.
type DataPayload struct {
	// WithGeometry copies the data bounds onto the node.
	WithGeometry bool
}

// BuildPayload implements PayloadBuilder.
func (p DataPayload) BuildPayload(req PayloadRequest) error {
	ptr, err := blend.PointerField(req.Record, "data")
	if err != nil {
		if errors.Is(err, blend.ErrFieldNotFound) {
			return nil
		}
		return err
	}
	if ptr.IsNull() {
		return nil
	}

	v, err := req.Cache.ResolveOr(ptr.Address(), func(rec blend.Record) (any, error) {
		return NewDataBlock(rec), nil
	})
	if err != nil {
		return err
	}
	req.Node.Payload = v
	if db, ok := v.(*DataBlock); ok && p.WithGeometry && db.Bounds != nil {
		b := *db.Bounds
		req.Node.Geometry = &b
	}
	return nil
}

// DefaultPayloadBuilders returns the builders used when none are
// configured.
func DefaultPayloadBuilders() map[scene.Kind]PayloadBuilder {
	return map[scene.Kind]PayloadBuilder{
		scene.KindEmpty:    PayloadBuilderFunc(func(PayloadRequest) error { return nil }),
		scene.KindMesh:     DataPayload{WithGeometry: true},
		scene.KindCurve:    DataPayload{WithGeometry: true},
		scene.KindLight:    DataPayload{},
		scene.KindCamera:   DataPayload{},
		scene.KindArmature: DataPayload{},
	}
}

// ListEntry names one element of a modifier or constraint stack.
type ListEntry struct {
	Address blend.Address
	Name    string
	Type    int64
}

// ListReader reads a list base field of an object into user data. It
// serves as the default ModifierApplier and ConstraintLoader, recording
// the stack without evaluating it.
type ListReader struct {
	acc   blend.Accessor
	field string
	key   string
}

// NewModifierReader reads the "modifiers" list into ModifiersKey.
func NewModifierReader(acc blend.Accessor) *ListReader {
	return &ListReader{acc: acc, field: "modifiers", key: ModifiersKey}
}

// NewConstraintReader reads the "constraints" list into ConstraintsKey.
func NewConstraintReader(acc blend.Accessor) *ListReader {
	return &ListReader{acc: acc, field: "constraints", key: ConstraintsKey}
}

// ApplyModifiers implements ModifierApplier.
func (l *ListReader) ApplyModifiers(node *scene.Node, rec blend.Record) error {
	return l.read(node, rec)
}

// LoadConstraints implements ConstraintLoader.
func (l *ListReader) LoadConstraints(node *scene.Node, rec blend.Record) error {
	return l.read(node, rec)
}

func (l *ListReader) read(node *scene.Node, rec blend.Record) error {
	lb, err := blend.RecordField(rec, l.field)
	if err != nil {
		if errors.Is(err, blend.ErrFieldNotFound) {
			return nil
		}
		return err
	}
	elems, err := blend.ListBase(l.acc, lb)
	if len(elems) > 0 {
		entries := make([]ListEntry, 0, len(elems))
		for _, e := range elems {
			name, _ := blend.StringField(e, "name")
			typ, _ := blend.IntField(e, "type")
			entries = append(entries, ListEntry{Address: e.Address(), Name: name, Type: typ})
		}
		node.SetUserData(l.key, entries)
	}
	return err
}
