package arch

import (
	"fmt"
	"strings"

	"github.com/born-ml/archbuild/internal/nn"
	"github.com/born-ml/archbuild/internal/tensor"
)

// Summary describes a module and its children.
type Summary struct {
	// Name is the module's name in its parent: an index inside a
	// Sequential, "nested" inside a ResBlock, empty for the root.
	Name string

	// Repr is the one-line representation of a layer, or the type name of
	// a container.
	Repr string

	// Params is the number of scalar parameters, children included.
	Params int

	Children []Summary
}

// Summarize returns the module tree rooted at m.
func Summarize[B tensor.Backend](m nn.Module[B]) Summary {
	return summarize("", m)
}

func summarize[B tensor.Backend](name string, m nn.Module[B]) Summary {
	s := Summary{
		Name:   name,
		Params: nn.NumParameters(m),
	}

	container, ok := m.(nn.Container[B])
	if !ok {
		s.Repr = repr(m)
		return s
	}

	s.Repr = containerName(container)
	for _, child := range container.Children() {
		s.Children = append(s.Children, summarize(child.Name, child.Module))
	}
	return s
}

func repr(m any) string {
	if str, ok := m.(fmt.Stringer); ok {
		return str.String()
	}
	return fmt.Sprintf("%T", m)
}

// containerName returns the first line of a container's representation
// without its opening parenthesis, e.g. "Sequential".
func containerName(m any) string {
	name, _, _ := strings.Cut(repr(m), "(")
	return name
}

// String renders the summary as an indented tree.
func (s Summary) String() string {
	var sb strings.Builder
	s.write(&sb, 0)
	return strings.TrimSuffix(sb.String(), "\n")
}

func (s Summary) write(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	if s.Name != "" {
		fmt.Fprintf(sb, "(%s): ", s.Name)
	}
	fmt.Fprintf(sb, "%s [%d params]\n", s.Repr, s.Params)
	for _, child := range s.Children {
		child.write(sb, depth+1)
	}
}
