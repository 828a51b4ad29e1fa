package arch

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var (
	pairType = reflect.TypeOf([2]int{})
	dimsType = reflect.TypeOf([]int{})
)

// decodeArgs decodes layer keyword arguments into out, a pointer to a
// struct with mapstructure tags. Fields already set in out act as defaults.
//
// Keys that match no field and required fields that are absent are
// reported the way a keyword-argument call would reject them.
func decodeArgs(layer string, args map[string]any, out any, required ...string) error {
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.DecodeHookFuncType(argsHook),
		Metadata:   &md,
		Result:     out,
		MatchName:  func(key, field string) bool { return key == field },
	})
	if err != nil {
		return &ConstructionError{Name: layer, Err: err}
	}

	if err := dec.Decode(args); err != nil {
		var decodeErr *mapstructure.Error
		if errors.As(err, &decodeErr) {
			sort.Strings(decodeErr.Errors)
			err = errors.New(strings.Join(decodeErr.Errors, "; "))
		}
		return &ConstructionError{Name: layer, Err: err}
	}

	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		return &ConstructionError{
			Name: layer,
			Err:  fmt.Errorf("got unexpected keyword argument(s): %s", strings.Join(md.Unused, ", ")),
		}
	}

	var missing []string
	for _, name := range required {
		if slices.Contains(md.Unset, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &ConstructionError{
			Name: layer,
			Err:  fmt.Errorf("missing required argument(s): %s", strings.Join(missing, ", ")),
		}
	}
	return nil
}

// argsHook widens scalars for pair and dims fields ("kernel_size": 3 means
// {3, 3}) and rejects fractional values for integer fields.
func argsHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch {
	case to == pairType:
		if n, ok := asInt(data); ok {
			return [2]int{n, n}, nil
		}
		if list, ok := data.([]any); ok && len(list) != 2 {
			return nil, fmt.Errorf("expected an int or a pair of ints, got %d values", len(list))
		}
	case to == dimsType:
		if n, ok := asInt(data); ok {
			return []int{n}, nil
		}
	case to.Kind() == reflect.Int:
		if _, ok := asInt(data); !ok && isNumber(data) {
			return nil, fmt.Errorf("expected an integer, got %v", data)
		}
	}
	return data, nil
}

// asInt reports whether v is an integral number and returns it as int.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int64, uint64, float32, float64, json.Number:
		return true
	}
	return false
}
