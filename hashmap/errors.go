package hashmap

import (
	"fmt"
	"reflect"
)

// InvalidArgumentError signals a nil key or nil value handed to an operation
// which forbids it. Operations on Map raise it synchronously—as a panic value—
// at the offending call, since a nil argument is a programmer error, not a
// transient failure.
type InvalidArgumentError struct {
	Op     string // operation which detected the invalid argument
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("hashmap.%s: %s", e.Op, e.Reason)
}

// InvalidInputError signals a malformed source sequence during bulk
// construction (FromPairs): a nil key, a nil value, or a key duplicating one
// already contained in the sequence. Construction aborts without exposing a
// partial map.
type InvalidInputError struct {
	Index  int // position of the offending pair within the source sequence
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("hashmap.FromPairs: pair #%d: %s", e.Index, e.Reason)
}

func invalid(op, reason string) {
	panic(&InvalidArgumentError{Op: op, Reason: reason})
}

// isNil reports whether x, viewed through its dynamic type, is nil. For value
// kinds (ints, strings, structs, …) it always returns false; nilness is a
// property of pointers, interfaces and reference kinds only.
func isNil(x interface{}) bool {
	v := reflect.ValueOf(x)
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
