package properties

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/blendscene/pkg/blend"
)

// Property parsing errors.
var (
	ErrUnsupportedPropertyType = errors.New("unsupported property type")
	ErrPropertyDepth           = errors.New("property nesting too deep")
)

// DefaultMaxDepth bounds group nesting.
const DefaultMaxDepth = 64

// Type tags as stored in the file's "type" and "subtype" fields.
const (
	tagString     = 0
	tagInt        = 1
	tagFloat      = 2
	tagArray      = 5
	tagGroup      = 6
	tagID         = 7
	tagDouble     = 8
	tagGroupArray = 9
)

// SkipFunc is told about a property that was dropped from its parent.
type SkipFunc func(addr blend.Address, name string, err error)

// Parser turns property records into Nodes.
type Parser struct {
	acc      blend.Accessor
	log      *zap.Logger
	maxDepth int
	onSkip   SkipFunc
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Parser) {
		if log != nil {
			p.log = log
		}
	}
}

// WithMaxDepth sets the maximum group nesting depth.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

// WithSkipHandler registers a callback for properties dropped from a group.
func WithSkipHandler(fn SkipFunc) Option {
	return func(p *Parser) {
		p.onSkip = fn
	}
}

// NewParser creates a parser reading through acc.
func NewParser(acc blend.Accessor, opts ...Option) *Parser {
	p := &Parser{
		acc:      acc,
		log:      zap.NewNop(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse is shorthand for NewParser(acc).Parse(rec).
func Parse(acc blend.Accessor, rec blend.Record) (*Node, error) {
	return NewParser(acc).Parse(rec)
}

// Parse reads one property record and everything below it.
func (p *Parser) Parse(rec blend.Record) (*Node, error) {
	return p.parse(rec, 0)
}

func (p *Parser) parse(rec blend.Record, depth int) (*Node, error) {
	if depth > p.maxDepth {
		return nil, fmt.Errorf("%w: limit %d", ErrPropertyDepth, p.maxDepth)
	}

	tag, err := blend.IntField(rec, "type")
	if err != nil {
		return nil, fmt.Errorf("reading property type: %w", err)
	}
	name, _ := blend.StringField(rec, "name")
	node := &Node{Name: name}

	data, err := blend.RecordField(rec, "data")
	if err != nil {
		return nil, fmt.Errorf("property %q: %w", name, err)
	}

	switch tag {
	case tagString:
		node.Type = TypeString
		node.Str, err = p.readString(data)
	case tagInt:
		node.Type = TypeInt
		node.Int, err = readInt32(data, "val")
	case tagFloat:
		node.Type = TypeFloat
		var bits int32
		bits, err = readInt32(data, "val")
		node.Float = math.Float32frombits(uint32(bits))
	case tagDouble:
		node.Type = TypeDouble
		node.Double, err = readDouble(data)
	case tagArray:
		err = p.readArray(rec, data, node)
	case tagGroup:
		node.Type = TypeGroup
		node.Children, err = p.readGroup(data, depth)
	case tagGroupArray:
		node.Type = TypeGroupArray
		node.Items, err = p.readGroupArray(data, depth)
	case tagID:
		p.log.Debug("ID property left unresolved", zap.String("name", name))
		node.Type = TypeUnsupported
	default:
		p.log.Warn("unsupported property type",
			zap.String("name", name),
			zap.Int64("type", tag))
		node.Type = TypeUnsupported
	}
	if err != nil {
		return nil, fmt.Errorf("property %q: %w", name, err)
	}
	return node, nil
}

func readInt32(data blend.Record, field string) (int32, error) {
	n, err := blend.NumberField(data, field)
	if err != nil {
		return 0, err
	}
	return n.Int32(), nil
}

// readDouble joins the low half in "val" with the high half in "val2".
func readDouble(data blend.Record) (float64, error) {
	lo, err := readInt32(data, "val")
	if err != nil {
		return 0, err
	}
	hi, err := readInt32(data, "val2")
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(uint32(hi))<<32 | uint64(uint32(lo))), nil
}

func (p *Parser) readString(data blend.Record) (string, error) {
	ptr, err := blend.PointerField(data, "pointer")
	if err != nil {
		return "", err
	}
	block, err := p.acc.Block(ptr.Address())
	if err != nil {
		return "", err
	}
	return blend.CString(block), nil
}

func (p *Parser) readArray(rec, data blend.Record, node *Node) error {
	subtype, err := blend.IntField(rec, "subtype")
	if err != nil {
		return err
	}

	var elemSize int
	switch subtype {
	case tagInt:
		node.Type, elemSize = TypeIntArray, 4
	case tagFloat:
		node.Type, elemSize = TypeFloatArray, 4
	case tagDouble:
		node.Type, elemSize = TypeDoubleArray, 8
	default:
		return fmt.Errorf("%w: array subtype %d", ErrUnsupportedPropertyType, subtype)
	}

	ptr, err := blend.PointerField(data, "pointer")
	if err != nil {
		return err
	}
	// empty arrays are stored without a block
	var block []byte
	if !ptr.IsNull() {
		if block, err = p.acc.Block(ptr.Address()); err != nil {
			return err
		}
	}

	order := p.acc.ByteOrder()
	count := len(block) / elemSize
	switch node.Type {
	case TypeIntArray:
		node.Ints = make([]int32, count)
		for i := range node.Ints {
			node.Ints[i] = int32(order.Uint32(block[i*4:]))
		}
	case TypeFloatArray:
		node.Floats = make([]float32, count)
		for i := range node.Floats {
			node.Floats[i] = math.Float32frombits(order.Uint32(block[i*4:]))
		}
	case TypeDoubleArray:
		node.Doubles = make([]float64, count)
		for i := range node.Doubles {
			node.Doubles[i] = math.Float64frombits(order.Uint64(block[i*8:]))
		}
	}
	return nil
}

func (p *Parser) readGroup(data blend.Record, depth int) ([]*Node, error) {
	lb, err := blend.RecordField(data, "group")
	if err != nil {
		return nil, err
	}
	members, err := blend.ListBase(p.acc, lb)
	if err != nil {
		// keep whatever was reachable before the list broke
		p.log.Warn("property group list is broken", zap.Error(err))
		p.skip(lb.Address(), "", err)
	}

	children := make([]*Node, 0, len(members))
	for _, m := range members {
		child, err := p.parse(m, depth+1)
		if err != nil {
			if errors.Is(err, ErrPropertyDepth) {
				return nil, err
			}
			name, _ := blend.StringField(m, "name")
			p.skip(m.Address(), name, err)
			continue
		}
		children = append(children, child)
	}
	return children, nil
}

func (p *Parser) readGroupArray(data blend.Record, depth int) ([]any, error) {
	ptr, err := blend.PointerField(data, "pointer")
	if err != nil {
		return nil, err
	}
	if ptr.IsNull() {
		return []any{}, nil
	}
	elems, err := p.acc.Fetch(ptr.Address())
	if err != nil {
		return nil, err
	}

	items := make([]any, 0, len(elems))
	for _, e := range elems {
		child, err := p.parse(e, depth+1)
		if err != nil {
			if errors.Is(err, ErrPropertyDepth) {
				return nil, err
			}
			name, _ := blend.StringField(e, "name")
			p.skip(e.Address(), name, err)
			continue
		}
		items = append(items, child.Value())
	}
	return items, nil
}

func (p *Parser) skip(addr blend.Address, name string, err error) {
	p.log.Debug("skipping property",
		zap.String("name", name),
		zap.Stringer("addr", addr),
		zap.Error(err))
	if p.onSkip != nil {
		p.onSkip(addr, name, err)
	}
}
