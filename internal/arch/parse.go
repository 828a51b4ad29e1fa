package arch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is an encoding of architecture descriptions.
type Format string

// Supported description formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name. The empty string is returned as is.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "":
		return "", nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported description format %q", name)
	}
}

// FormatFromPath picks YAML for .yaml and .yml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFile reads and parses the description stored at path. An empty
// format is derived from the file extension.
func ParseFile(path string, format Format) (Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read description: %w", err)
	}
	if format == "" {
		format = FormatFromPath(path)
	}

	switch format {
	case FormatJSON:
		return ParseJSON(data)
	case FormatYAML:
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported description format %q", format)
	}
}

// ParseJSON parses a JSON description such as
//
//	["Sequential", [["Linear", {"in_features": 4, "out_features": 2}], ["ReLU", {}]]]
//
// Numbers are kept as json.Number so integer arguments keep their exact value.
func ParseJSON(data []byte) (Description, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode JSON description: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("failed to decode JSON description: unexpected data after top-level value")
	}
	return Parse(v)
}

// ParseYAML parses a YAML description, for example
//
//	# model.yaml
//	- Sequential
//	- - [Linear, {in_features: 4, out_features: 2}]
//	  - [ReLU, {}]
func ParseYAML(data []byte) (Description, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode YAML description: %w", err)
	}
	return Parse(v)
}

// Parse converts a decoded [typeName, args] value into a Description.
//
// Sequential args must be a list of descriptions, ResBlock args an object
// whose values are descriptions, and the args of any other type an object
// (or null, meaning no arguments). Type names are not checked against a
// registry here; that happens at build time.
//
// Parse fails only when the root is not a [type, args] pair. Malformed values
// below the root and args of the wrong shape stay in the description and are
// reported when Build reaches them, so that build errors come in depth-first
// order: an unknown type name is reported before anything about its args.
func Parse(v any) (Description, error) {
	d := parse(v, "")
	if bad, ok := d.(invalid); ok && bad.name == "" {
		return nil, bad.err
	}
	return d, nil
}

func parse(v any, path string) Description {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return invalid{err: &DescriptionError{Path: path, Msg: fmt.Sprintf("expected a [type, args] pair, got %s", describeValue(v))}}
	}
	typeName, ok := pair[0].(string)
	if !ok {
		return invalid{err: &DescriptionError{Path: pointer(path, "0"), Msg: fmt.Sprintf("type name must be a string, got %s", describeValue(pair[0]))}}
	}
	argsPath := pointer(path, "1")

	switch typeName {
	case SequentialType:
		items, ok := pair[1].([]any)
		if !ok {
			return invalid{name: typeName, err: &DescriptionError{Path: argsPath, Msg: fmt.Sprintf("Sequential args must be a list, got %s", describeValue(pair[1]))}}
		}
		spec := SequentialSpec{Items: make([]Description, len(items))}
		for i, item := range items {
			spec.Items[i] = parse(item, pointer(argsPath, strconv.Itoa(i)))
		}
		return spec

	case ResBlockType:
		args, err := objectArgs(pair[1], argsPath, typeName)
		if err != nil {
			return invalid{name: typeName, err: err}
		}
		spec := ResBlockSpec{Args: make(map[string]Description, len(args))}
		for key, value := range args {
			spec.Args[key] = parse(value, pointer(argsPath, key))
		}
		return spec

	default:
		args, err := objectArgs(pair[1], argsPath, typeName)
		if err != nil {
			return invalid{name: typeName, err: err}
		}
		return Leaf{Type: typeName, Args: args}
	}
}

// objectArgs returns v as a string-keyed map, converting YAML maps with
// non-string keys.
func objectArgs(v any, path, typeName string) (map[string]any, *DescriptionError) {
	switch args := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		out := make(map[string]any, len(args))
		for key, value := range args {
			out[key] = normalize(value)
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(args))
		for key, value := range args {
			name, ok := key.(string)
			if !ok {
				return nil, &DescriptionError{Path: path, Msg: fmt.Sprintf("%s argument names must be strings, got %s", typeName, describeValue(key))}
			}
			out[name] = normalize(value)
		}
		return out, nil
	default:
		return nil, &DescriptionError{Path: path, Msg: fmt.Sprintf("%s args must be an object, got %s", typeName, describeValue(v))}
	}
}

// normalize converts nested YAML maps into map[string]any.
func normalize(v any) any {
	switch value := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[k] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}

func describeValue(v any) string {
	switch value := v.(type) {
	case nil:
		return "null"
	case []any:
		return fmt.Sprintf("a list of %d elements", len(value))
	case map[string]any, map[any]any:
		return "an object"
	case string:
		return strconv.Quote(value)
	default:
		return fmt.Sprintf("%v (%T)", v, v)
	}
}
