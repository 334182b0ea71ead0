// Package importer resolves object records of a file into a scene graph.
// Every address is materialized once per session through a FeatureCache;
// parent chains are walked with an explicit work-list so cyclic parentage
// is reported instead of recursing forever.
package importer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/blendscene/internal/config"
	"github.com/Faultbox/blendscene/internal/properties"
	"github.com/Faultbox/blendscene/internal/scene"
	"github.com/Faultbox/blendscene/pkg/blend"
	"github.com/Faultbox/blendscene/pkg/math"
)

// Object type tags of the "type" field.
const (
	objectEmpty    = 0
	objectMesh     = 1
	objectCurve    = 2
	objectSurf     = 3
	objectText     = 4
	objectMetaball = 5
	objectLamp     = 10
	objectCamera   = 11
	objectWave     = 21
	objectLattice  = 22
	objectArmature = 25
)

// objectKind maps a type tag to a node kind. Known but unsupported types
// report a name; unknown types report "".
func objectKind(tag int64) (scene.Kind, bool, string) {
	switch tag {
	case objectEmpty:
		return scene.KindEmpty, true, ""
	case objectMesh:
		return scene.KindMesh, true, ""
	case objectCurve, objectSurf:
		return scene.KindCurve, true, ""
	case objectLamp:
		return scene.KindLight, true, ""
	case objectCamera:
		return scene.KindCamera, true, ""
	case objectArmature:
		return scene.KindArmature, true, ""
	case objectText:
		return scene.KindEmpty, false, "text"
	case objectMetaball:
		return scene.KindEmpty, false, "metaball"
	case objectWave:
		return scene.KindEmpty, false, "wave"
	case objectLattice:
		return scene.KindEmpty, false, "lattice"
	default:
		return scene.KindEmpty, false, ""
	}
}

// Builder turns object records into scene nodes. One Builder is one import
// session; it is not safe for concurrent use.
type Builder struct {
	acc         blend.Accessor
	cfg         config.ImportConfig
	cache       *FeatureCache
	resolver    *TransformResolver
	payloads    map[scene.Kind]PayloadBuilder
	modifiers   ModifierApplier
	constraints ConstraintLoader
	log         *zap.Logger
	warnings    []Warning
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// WithPayloadBuilder replaces the payload builder of one kind.
func WithPayloadBuilder(kind scene.Kind, pb PayloadBuilder) Option {
	return func(b *Builder) {
		b.payloads[kind] = pb
	}
}

// WithModifierApplier replaces the modifier reader. Nil disables modifiers.
func WithModifierApplier(m ModifierApplier) Option {
	return func(b *Builder) {
		b.modifiers = m
	}
}

// WithConstraintLoader replaces the constraint reader. Nil disables
// constraints.
func WithConstraintLoader(c ConstraintLoader) Option {
	return func(b *Builder) {
		b.constraints = c
	}
}

// NewBuilder creates a builder reading through acc. cfg is copied.
func NewBuilder(acc blend.Accessor, cfg config.ImportConfig, opts ...Option) *Builder {
	b := &Builder{
		acc:         acc,
		cfg:         cfg,
		cache:       NewFeatureCache(acc),
		resolver:    NewTransformResolver(cfg),
		payloads:    DefaultPayloadBuilders(),
		modifiers:   NewModifierReader(acc),
		constraints: NewConstraintReader(acc),
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Cache returns the session's feature cache.
func (b *Builder) Cache() *FeatureCache {
	return b.cache
}

// Config returns the import settings of the session.
func (b *Builder) Config() config.ImportConfig {
	return b.cfg
}

// Resolver returns the session's transform resolver.
func (b *Builder) Resolver() *TransformResolver {
	return b.resolver
}

// Warnings returns the recoverable problems met so far.
func (b *Builder) Warnings() []Warning {
	out := make([]Warning, len(b.warnings))
	copy(out, b.warnings)
	return out
}

func (b *Builder) warn(addr blend.Address, kind WarningKind, msg string, err error) {
	b.warnings = append(b.warnings, Warning{Address: addr, Kind: kind, Message: msg, Err: err})
	b.log.Warn(msg,
		zap.Stringer("addr", addr),
		zap.Stringer("kind", kind),
		zap.Error(err))
}

// ResolveObject returns the node of the object at addr, resolving its
// parents first. Resolving the same address again returns the same node
// without touching the file.
//
// Objects the import settings exclude yield ErrSkipped. Any other failure
// is a *RootError wrapping ErrRootUnresolved and the cause. A cyclic parent
// chain still materializes its nodes, breaking the cycle at the node that
// closes it, and returns the node together with an ErrCyclicParentage
// error.
func (b *Builder) ResolveObject(addr blend.Address) (*scene.Node, error) {
	node, err := b.resolve(addr)
	if err != nil && !errors.Is(err, ErrSkipped) {
		b.log.Error("object unresolved", zap.Stringer("addr", addr), zap.Error(err))
		return node, &RootError{Address: addr, Err: err}
	}
	return node, err
}

func (b *Builder) cachedNode(addr blend.Address) (*scene.Node, bool) {
	v, ok := b.cache.Feature(addr)
	if !ok {
		return nil, false
	}
	n, ok := v.(*scene.Node)
	return n, ok
}

// pending is one object of the parent chain waiting to be materialized.
type pending struct {
	rec    blend.Record
	parent blend.Address
	root   bool
}

func (b *Builder) resolve(addr blend.Address) (*scene.Node, error) {
	if n, ok := b.cachedNode(addr); ok {
		return n, nil
	}

	// Walk up until a materialized ancestor or a root, marking each
	// object in flight.
	var chain []pending
	defer func() {
		for _, p := range chain {
			b.cache.End(p.rec.Address())
		}
	}()

	var cycleErr error
	cur := addr
	for {
		if _, ok := b.cachedNode(cur); ok {
			break
		}

		rec, err := b.cache.Record(cur)
		if err != nil {
			if len(chain) == 0 {
				return nil, err
			}
			child := &chain[len(chain)-1]
			b.warn(child.rec.Address(), WarnBrokenReference, "parent unreachable, object treated as root", err)
			child.root = true
			break
		}

		if err := b.admit(rec); err != nil {
			if len(chain) == 0 {
				return nil, err
			}
			child := &chain[len(chain)-1]
			if errors.Is(err, ErrSkipped) {
				b.log.Debug("parent excluded, object treated as root",
					zap.Stringer("addr", child.rec.Address()),
					zap.Stringer("parent", cur))
			} else {
				b.warn(child.rec.Address(), WarnBrokenReference, "parent unreadable, object treated as root", err)
			}
			child.root = true
			break
		}

		if !b.cache.Begin(cur) {
			cycleErr = fmt.Errorf("%w: %s is its own ancestor", ErrCyclicParentage, cur)
			if len(chain) == 0 {
				return nil, cycleErr
			}
			closing := &chain[len(chain)-1]
			b.log.Error("cyclic parentage",
				zap.Stringer("addr", closing.rec.Address()),
				zap.Stringer("parent", cur))
			b.warn(closing.rec.Address(), WarnCyclicParentage, "cyclic parent chain, object treated as root", cycleErr)
			closing.root = true
			break
		}

		p := pending{rec: rec}
		parent, err := blend.PointerField(rec, "parent")
		if err != nil || parent.IsNull() {
			p.root = true
			chain = append(chain, p)
			break
		}
		p.parent = parent.Address()
		chain = append(chain, p)
		cur = p.parent
	}

	// Materialize top-down so every parent exists before its children.
	var node *scene.Node
	for i := len(chain) - 1; i >= 0; i-- {
		p := chain[i]
		var parent *scene.Node
		if !p.root {
			parent, _ = b.cachedNode(p.parent)
		}
		n, err := b.materialize(p.rec, parent)
		if err != nil {
			return nil, err
		}
		node = n
	}
	if node == nil {
		// The requested object was materialized while its chain was walked.
		node, _ = b.cachedNode(addr)
	}
	return node, cycleErr
}

// admit applies the feature and layer settings to an object record.
func (b *Builder) admit(rec blend.Record) error {
	tag, err := blend.IntField(rec, "type")
	if err != nil {
		return fmt.Errorf("reading object type: %w", err)
	}
	switch {
	case tag == objectLamp && !b.cfg.Loads(config.FeatureLights):
		return fmt.Errorf("%w: lights are not loaded", ErrSkipped)
	case tag == objectCamera && !b.cfg.Loads(config.FeatureCameras):
		return fmt.Errorf("%w: cameras are not loaded", ErrSkipped)
	case !b.cfg.Loads(config.FeatureObjects):
		return fmt.Errorf("%w: objects are not loaded", ErrSkipped)
	}
	if lay, err := blend.IntField(rec, "lay"); err == nil && !b.cfg.LayerVisible(uint32(lay)) {
		return fmt.Errorf("%w: layer %#x is not loaded", ErrSkipped, lay)
	}
	return nil
}

func (b *Builder) materialize(rec blend.Record, parent *scene.Node) (*scene.Node, error) {
	addr := rec.Address()
	tag, err := blend.IntField(rec, "type")
	if err != nil {
		return nil, fmt.Errorf("reading object type: %w", err)
	}
	kind, supported, typeName := objectKind(tag)

	node := scene.NewNode(rec.Name(), kind)
	node.Address = addr
	restrict, _ := blend.IntField(rec, "restrictflag")
	node.Visible = restrict&0x01 == 0

	var parentInv *math.Mat4
	if parent != nil {
		if parentInv, err = b.resolver.ParentInverse(rec); err != nil {
			return nil, fmt.Errorf("object %s: %w", addr, err)
		}
	}
	if node.Local, err = b.resolver.Compute(rec, parentInv); err != nil {
		return nil, fmt.Errorf("object %s: %w", addr, err)
	}
	if signs, err := b.resolver.SizeSignums(rec); err == nil {
		node.Mirrored = signs.X*signs.Y*signs.Z < 0
	}

	b.log.Debug("loading object",
		zap.String("name", node.Name),
		zap.Stringer("addr", addr),
		zap.Stringer("kind", kind))

	switch {
	case supported:
		if pb := b.payloads[kind]; pb != nil {
			req := PayloadRequest{Node: node, Record: rec, Parent: parent, Cache: b.cache, Log: b.log}
			if err := pb.BuildPayload(req); err != nil {
				b.warn(addr, WarnBrokenReference, "object data not loaded", err)
			}
		}
	case typeName != "":
		b.warn(addr, WarnUnknownObjectType, typeName+" objects are not supported, loaded as empty", nil)
	default:
		b.warn(addr, WarnUnknownObjectType, fmt.Sprintf("unknown object type %d, loaded as empty", tag), nil)
	}

	if parent != nil {
		parent.Attach(node)
	}
	node.UpdateBound()

	b.cache.Store(addr, rec, node)
	b.cache.SetMarker(MarkerOMA, addr, node)
	if kind == scene.KindArmature {
		b.cache.SetMarker(MarkerArmatureNode, addr, true)
	}

	b.finish(node, rec)
	return node, nil
}

// finish applies modifiers, then constraints, then custom properties.
func (b *Builder) finish(node *scene.Node, rec blend.Record) {
	if b.modifiers != nil {
		if err := b.modifiers.ApplyModifiers(node, rec); err != nil {
			b.warn(node.Address, WarnModifier, "modifiers not fully applied", err)
		}
	}
	if b.constraints != nil {
		if err := b.constraints.LoadConstraints(node, rec); err != nil {
			b.warn(node.Address, WarnConstraint, "constraints not fully loaded", err)
		}
	}
	if b.cfg.LoadCustomProperties {
		b.loadProperties(node, rec)
	}
}

func (b *Builder) loadProperties(node *scene.Node, rec blend.Record) {
	ptr, err := blend.PointerField(rec, "id.properties")
	if err != nil || ptr.IsNull() {
		return
	}
	prec, err := b.cache.Record(ptr.Address())
	if err != nil {
		b.warn(node.Address, WarnBrokenReference, "custom properties unreachable", err)
		return
	}

	parser := properties.NewParser(b.acc,
		properties.WithLogger(b.log.Named("properties")),
		properties.WithMaxDepth(b.cfg.MaxPropertyDepth),
		properties.WithSkipHandler(func(addr blend.Address, name string, err error) {
			b.warn(addr, WarnUnsupportedProperty, fmt.Sprintf("property %q skipped", name), err)
		}))
	root, err := parser.Parse(prec)
	if err != nil {
		b.warn(node.Address, WarnUnsupportedProperty, "custom properties not loaded", err)
		return
	}
	properties.PostProcess(root)

	for name, v := range root.Flatten() {
		node.SetUserData(name, v)
	}
	node.SetUserData(PropertiesKey, root)
}

// IsParent reports whether the object at ancestor is a parent, direct or
// not, of the object at addr. Both must already be resolved.
func (b *Builder) IsParent(ancestor, addr blend.Address) bool {
	a, ok := b.cachedNode(ancestor)
	if !ok {
		return false
	}
	n, ok := b.cachedNode(addr)
	if !ok {
		return false
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p == a {
			return true
		}
	}
	return false
}

// SceneResult collects the outcome of resolving many objects.
type SceneResult struct {
	// Roots are the top-level nodes of every resolved object, in the order
	// they were first reached.
	Roots []*scene.Node
	// Errors holds the failure of each object that could not be resolved.
	Errors map[blend.Address]error
	// Skipped counts objects excluded by the import settings.
	Skipped int
}

// ResolveAll resolves every address. A failing object does not stop the
// others.
func (b *Builder) ResolveAll(addrs []blend.Address) *SceneResult {
	res := &SceneResult{Errors: make(map[blend.Address]error)}
	seen := make(map[*scene.Node]bool)
	for _, addr := range addrs {
		node, err := b.ResolveObject(addr)
		switch {
		case errors.Is(err, ErrSkipped):
			res.Skipped++
			continue
		case err != nil:
			res.Errors[addr] = err
		}
		if node == nil {
			continue
		}
		root := node
		for root.Parent() != nil {
			root = root.Parent()
		}
		if !seen[root] {
			seen[root] = true
			res.Roots = append(res.Roots, root)
		}
	}
	return res
}

// ResolveScene resolves every Object record of the file in address order.
// The accessor must implement blend.Lister.
func (b *Builder) ResolveScene() (*SceneResult, error) {
	lister, ok := b.acc.(blend.Lister)
	if !ok {
		return nil, errors.New("accessor cannot enumerate records")
	}
	recs := lister.RecordsOfType("Object")
	addrs := make([]blend.Address, len(recs))
	for i, r := range recs {
		addrs[i] = r.Address()
	}
	b.log.Info("resolving scene", zap.Int("objects", len(addrs)))
	return b.ResolveAll(addrs), nil
}
