package nn

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/archbuild/internal/tensor"
)

// ErrMissingNested is returned by NewResBlockFromArgs when no "nested"
// module is given.
var ErrMissingNested = errors.New("missing required argument: 'nested'")

// ResBlock is a residual block: Forward(x) = x + nested(x).
//
// The addition broadcasts, so nested may change the shape of x as long as
// the two shapes stay broadcast-compatible. Incompatible shapes panic at
// Forward time.
type ResBlock[B tensor.Backend] struct {
	nested Module[B]
}

// NewResBlock wraps nested in a residual connection.
func NewResBlock[B tensor.Backend](nested Module[B]) *ResBlock[B] {
	if nested == nil {
		panic("resblock: nested module is nil")
	}
	return &ResBlock[B]{nested: nested}
}

// NewResBlockFromArgs builds a ResBlock from keyword arguments. The only
// accepted key is "nested"; anything else is an error.
func NewResBlockFromArgs[B tensor.Backend](args map[string]Module[B]) (*ResBlock[B], error) {
	var extra []string
	for key := range args {
		if key != "nested" {
			extra = append(extra, key)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, fmt.Errorf("got unexpected keyword argument(s): %s", strings.Join(extra, ", "))
	}

	nested, ok := args["nested"]
	if !ok || nested == nil {
		return nil, ErrMissingNested
	}
	return NewResBlock(nested), nil
}

// Forward returns input + nested(input).
func (r *ResBlock[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	return input.Add(r.nested.Forward(input))
}

// Nested returns the wrapped module.
func (r *ResBlock[B]) Nested() Module[B] {
	return r.nested
}

// Parameters returns the parameters of the wrapped module.
func (r *ResBlock[B]) Parameters() []*Parameter[B] {
	return r.nested.Parameters()
}

// Children returns the wrapped module under the name "nested".
func (r *ResBlock[B]) Children() []NamedModule[B] {
	return []NamedModule[B]{{Name: "nested", Module: r.nested}}
}

// StateDict returns the wrapped module's state with a "nested." prefix.
func (r *ResBlock[B]) StateDict() map[string]*tensor.RawTensor {
	return childrenStateDict(r.Children())
}

// LoadStateDict loads "nested."-prefixed parameters into the wrapped module.
func (r *ResBlock[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return loadChildren(stateDict, r.Children())
}

// String returns a multi-line representation of the block.
func (r *ResBlock[B]) String() string {
	return "ResBlock(\n  (nested): " + indent(describe(r.nested)) + "\n)"
}
