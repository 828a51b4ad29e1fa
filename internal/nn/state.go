package nn

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/archbuild/internal/tensor"
)

// paramsStateDict exports params under their own names.
func paramsStateDict[B tensor.Backend](params ...*Parameter[B]) map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor, len(params))
	for _, p := range params {
		if p != nil {
			stateDict[p.Name()] = p.Tensor().Raw()
		}
	}
	return stateDict
}

// loadParams copies every param from stateDict, validating shapes, and
// rejects keys that do not belong to any param.
func loadParams[B tensor.Backend](stateDict map[string]*tensor.RawTensor, params ...*Parameter[B]) error {
	known := make(map[string]bool, len(params))
	for _, p := range params {
		if p == nil {
			continue
		}
		known[p.Name()] = true

		raw, ok := stateDict[p.Name()]
		if !ok {
			return fmt.Errorf("missing %s in state dict", p.Name())
		}
		expected := p.Tensor().Shape()
		if !raw.Shape().Equal(expected) {
			return fmt.Errorf("%s shape mismatch: expected %v, got %v", p.Name(), expected, raw.Shape())
		}
		copy(p.Tensor().Data(), raw.Data())
	}

	return unexpectedKeys(stateDict, known)
}

func unexpectedKeys(stateDict map[string]*tensor.RawTensor, known map[string]bool) error {
	var extra []string
	for key := range stateDict {
		if !known[key] {
			extra = append(extra, key)
		}
	}
	if len(extra) == 0 {
		return nil
	}
	sort.Strings(extra)
	return fmt.Errorf("unexpected keys in state dict: %s", strings.Join(extra, ", "))
}

// childrenStateDict merges the state dicts of children, prefixing every key
// with "<child name>.".
func childrenStateDict[B tensor.Backend](children []NamedModule[B]) map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for _, child := range children {
		for name, raw := range child.Module.StateDict() {
			stateDict[child.Name+"."+name] = raw
		}
	}
	return stateDict
}

// loadChildren splits stateDict by child-name prefix and loads each part.
func loadChildren[B tensor.Backend](stateDict map[string]*tensor.RawTensor, children []NamedModule[B]) error {
	parts := make(map[string]map[string]*tensor.RawTensor, len(children))
	for _, child := range children {
		parts[child.Name] = make(map[string]*tensor.RawTensor)
	}

	var extra []string
	for key, raw := range stateDict {
		prefix, rest, ok := strings.Cut(key, ".")
		part, known := parts[prefix]
		if !ok || !known {
			extra = append(extra, key)
			continue
		}
		part[rest] = raw
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return fmt.Errorf("unexpected keys in state dict: %s", strings.Join(extra, ", "))
	}

	for _, child := range children {
		if err := child.Module.LoadStateDict(parts[child.Name]); err != nil {
			return fmt.Errorf("failed to load module %s: %w", child.Name, err)
		}
	}
	return nil
}
