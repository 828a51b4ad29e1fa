package arch

// Reserved type names handled by the builder itself.
const (
	SequentialType = "Sequential"
	ResBlockType   = "ResBlock"
)

// Description is a parsed architecture description.
//
// It is one of Leaf, SequentialSpec or ResBlockSpec. Descriptions are plain
// values; Build never modifies them. Parse may also leave placeholders for
// malformed values inside a description; Build reports them when reached.
type Description interface {
	// TypeName returns the layer type the description names.
	TypeName() string

	isDescription()
}

// Leaf describes a registry layer. Args are handed to the layer factory
// verbatim, nested values included.
type Leaf struct {
	Type string
	Args map[string]any
}

// SequentialSpec describes an nn.Sequential whose children are built from
// Items, in order.
type SequentialSpec struct {
	Items []Description
}

// ResBlockSpec describes an nn.ResBlock. Every value of Args is itself a
// description; the block accepts a single key, "nested".
type ResBlockSpec struct {
	Args map[string]Description
}

// TypeName returns l.Type.
func (l Leaf) TypeName() string { return l.Type }

// TypeName returns "Sequential".
func (SequentialSpec) TypeName() string { return SequentialType }

// TypeName returns "ResBlock".
func (ResBlockSpec) TypeName() string { return ResBlockType }

// invalid stands for a malformed value. name is the type name when the value
// was a [type, args] pair whose args had the wrong shape.
type invalid struct {
	name string
	err  *DescriptionError
}

// TypeName returns the type name of the malformed pair, if any.
func (d invalid) TypeName() string { return d.name }

func (Leaf) isDescription()           {}
func (invalid) isDescription()        {}
func (SequentialSpec) isDescription() {}
func (ResBlockSpec) isDescription()   {}

// Layer returns a Leaf description of the named layer.
func Layer(typeName string, args map[string]any) Leaf {
	return Leaf{Type: typeName, Args: args}
}

// Seq returns a SequentialSpec of items.
func Seq(items ...Description) SequentialSpec {
	return SequentialSpec{Items: items}
}

// Residual returns a ResBlockSpec wrapping nested.
func Residual(nested Description) ResBlockSpec {
	return ResBlockSpec{Args: map[string]Description{"nested": nested}}
}
