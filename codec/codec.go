// Package codec converts between Go values and the raw JSON values carried in
// JSON-RPC envelopes.
//
// Parameter conversions are total: every helper returns a wire value and never an
// error, so a namespace can build its parameter list before submitting a call
// without any failure path. Decoding goes the other way and is all-or-nothing.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrEmpty is reported when there is no payload at all to decode.
	ErrEmpty = errors.New("empty payload")
	// ErrNull is reported when a JSON null arrives for a type that cannot hold it.
	ErrNull = errors.New("unexpected null")
	// ErrMissingField is wrapped by PathError when an object lacks a required member.
	ErrMissingField = errors.New("missing required field")
)

// PathError describes a payload that does not fit the target type.
// Path names the offending member when it is known, for example "pending" or
// "queued.0x52bc44d5378309ee2abf1539bf71de1b7d7be3b5.0.gas".
type PathError struct {
	Path   string
	Offset int64
	Err    error
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// Missing reports an absent required member.
func Missing(field string) *PathError {
	return &PathError{Path: field, Err: ErrMissingField}
}

// Decode unmarshals raw into a fresh T. On failure the zero T is returned, never a
// partially populated one. JSON null is accepted only when T is a pointer, map,
// slice or interface type.
func Decode[T any](raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, &PathError{Err: ErrEmpty}
	}
	if isNull(raw) && !nilable(reflect.TypeOf((*T)(nil)).Elem()) {
		return out, &PathError{Err: fmt.Errorf("%w for %s", ErrNull, reflect.TypeOf((*T)(nil)).Elem())}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		var zero T
		return zero, pathError(err)
	}
	return out, nil
}

func pathError(err error) *PathError {
	var pathErr *PathError
	if errors.As(err, &pathErr) {
		return pathErr
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &PathError{Path: typeErr.Field, Offset: typeErr.Offset, Err: err}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &PathError{Offset: syntaxErr.Offset, Err: err}
	}
	return &PathError{Err: err}
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return true
	}
	return false
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
