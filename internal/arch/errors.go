package arch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLayerType is matched by every *UnknownLayerTypeError.
var ErrUnknownLayerType = errors.New("unknown layer type")

// UnknownLayerTypeError is returned when a description names a type that is
// neither Sequential, ResBlock nor registered.
type UnknownLayerTypeError struct {
	Name string
}

func (e *UnknownLayerTypeError) Error() string {
	return fmt.Sprintf("unknown layer type %q", e.Name)
}

// Is reports whether target is ErrUnknownLayerType.
func (e *UnknownLayerTypeError) Is(target error) bool {
	return target == ErrUnknownLayerType
}

// ConstructionError is returned when a layer constructor rejects its
// arguments: unexpected or missing keys, wrong value types or invalid
// values.
type ConstructionError struct {
	Name string
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construct %s: %v", e.Name, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// DescriptionError reports a malformed description. Path is a JSON pointer
// to the offending value ("" for the root).
type DescriptionError struct {
	Path string
	Msg  string
}

func (e *DescriptionError) Error() string {
	if e.Path == "" {
		return "invalid description: " + e.Msg
	}
	return fmt.Sprintf("invalid description at %s: %s", e.Path, e.Msg)
}

// ForwardError wraps a panic raised while evaluating a module, such as a
// shape mismatch inside a ResBlock.
type ForwardError struct {
	Value any
}

func (e *ForwardError) Error() string {
	return fmt.Sprintf("forward: %v", e.Value)
}

func (e *ForwardError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// pointer appends an escaped JSON pointer token to path.
func pointer(path string, token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	token = strings.ReplaceAll(token, "/", "~1")
	return path + "/" + token
}
