package memento

import (
	"fmt"
	"reflect"

	jsoniter "github.com/json-iterator/go"
)

var cloneAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Cloner copies a state value. The copy must share no mutable memory with
// its input.
type Cloner[S any] func(S) (S, error)

// DeepCopy copies v recursively: slices, maps, pointers and interface
// values are duplicated, so the result shares no mutable memory with v.
// Funcs are immutable and shared as is. Channels, unsafe pointers and
// unexported fields that hold references cannot be duplicated and yield
// ErrUncopyable.
func DeepCopy[S any](v S) (S, error) {
	var out S
	c := &copier{seen: make(map[seenKey]reflect.Value)}
	dup, err := c.copy(reflect.ValueOf(&v).Elem())
	if err != nil {
		return out, err
	}
	reflect.ValueOf(&out).Elem().Set(dup)
	return out, nil
}

// CloneJSON deep-copies v through a JSON round trip. Types the round trip
// cannot reproduce exactly are rejected with ErrUncopyable: unexported or
// `json:"-"` fields, interfaces, channels, funcs and complex numbers.
func CloneJSON[S any](v S) (S, error) {
	var out S
	if err := checkJSON(reflect.TypeFor[S]()); err != nil {
		return out, err
	}

	data, err := cloneAPI.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrUncopyable, err)
	}
	if err := cloneAPI.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: %w", ErrUncopyable, err)
	}
	return out, nil
}

// holdsReferences reports whether values of t can share mutable memory
// with their copies after a plain assignment.
func holdsReferences(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Interface, reflect.Chan, reflect.UnsafePointer:
		return true
	case reflect.Array:
		return holdsReferences(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if holdsReferences(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}

// checkCopyable reports the static reasons DeepCopy would reject t.
// Interface contents are only known at copy time.
func checkCopyable(t reflect.Type) error {
	return walkType(t, make(map[reflect.Type]bool), func(t reflect.Type, f *reflect.StructField) error {
		switch t.Kind() {
		case reflect.Chan, reflect.UnsafePointer:
			return fmt.Errorf("%w: %s", ErrUncopyable, t)
		}
		if f != nil && !f.IsExported() && holdsReferences(f.Type) {
			return fmt.Errorf("%w: unexported field %s holds references", ErrUncopyable, f.Name)
		}
		return nil
	})
}

func checkJSON(t reflect.Type) error {
	return walkType(t, make(map[reflect.Type]bool), func(t reflect.Type, f *reflect.StructField) error {
		switch t.Kind() {
		case reflect.Interface, reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
			return fmt.Errorf("%w: %s does not survive a JSON round trip", ErrUncopyable, t)
		}
		if f == nil {
			return nil
		}
		if !f.IsExported() {
			return fmt.Errorf("%w: unexported field %s is dropped by JSON", ErrUncopyable, f.Name)
		}
		if f.Tag.Get("json") == "-" {
			return fmt.Errorf("%w: field %s is excluded from JSON", ErrUncopyable, f.Name)
		}
		return nil
	})
}

// walkType calls visit for t and every type reachable from it. f is the
// struct field t was reached through, or nil.
func walkType(t reflect.Type, seen map[reflect.Type]bool, visit func(t reflect.Type, f *reflect.StructField) error) error {
	var walk func(t reflect.Type, f *reflect.StructField) error
	walk = func(t reflect.Type, f *reflect.StructField) error {
		if err := visit(t, f); err != nil {
			return err
		}
		if seen[t] {
			return nil
		}
		seen[t] = true

		switch t.Kind() {
		case reflect.Slice, reflect.Array, reflect.Pointer:
			return walk(t.Elem(), nil)
		case reflect.Map:
			if err := walk(t.Key(), nil); err != nil {
				return err
			}
			return walk(t.Elem(), nil)
		case reflect.Struct:
			for i := range t.NumField() {
				field := t.Field(i)
				if err := walk(field.Type, &field); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(t, nil)
}

type seenKey struct {
	ptr uintptr
	typ reflect.Type
}

// copier keeps the copies of pointers and maps already visited so shared
// and cyclic references keep their shape.
type copier struct {
	seen map[seenKey]reflect.Value
}

func (c *copier) copy(v reflect.Value) (reflect.Value, error) {
	t := v.Type()

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		key := seenKey{ptr: v.Pointer(), typ: t}
		if dup, ok := c.seen[key]; ok {
			return dup, nil
		}
		dup := reflect.New(t.Elem())
		c.seen[key] = dup
		elem, err := c.copy(v.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		dup.Elem().Set(elem)
		return dup, nil

	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		elem, err := c.copy(v.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		dup := reflect.New(t).Elem()
		dup.Set(elem)
		return dup, nil

	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		dup := reflect.MakeSlice(t, v.Len(), v.Cap())
		if !holdsReferences(t.Elem()) {
			reflect.Copy(dup, v)
			return dup, nil
		}
		for i := range v.Len() {
			elem, err := c.copy(v.Index(i))
			if err != nil {
				return reflect.Value{}, err
			}
			dup.Index(i).Set(elem)
		}
		return dup, nil

	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		key := seenKey{ptr: v.Pointer(), typ: t}
		if dup, ok := c.seen[key]; ok {
			return dup, nil
		}
		dup := reflect.MakeMapWithSize(t, v.Len())
		c.seen[key] = dup
		iter := v.MapRange()
		for iter.Next() {
			elem, err := c.copy(iter.Value())
			if err != nil {
				return reflect.Value{}, err
			}
			dup.SetMapIndex(iter.Key(), elem)
		}
		return dup, nil

	case reflect.Array:
		dup := reflect.New(t).Elem()
		dup.Set(v)
		if !holdsReferences(t.Elem()) {
			return dup, nil
		}
		for i := range v.Len() {
			elem, err := c.copy(v.Index(i))
			if err != nil {
				return reflect.Value{}, err
			}
			dup.Index(i).Set(elem)
		}
		return dup, nil

	case reflect.Struct:
		dup := reflect.New(t).Elem()
		dup.Set(v)
		for i := range t.NumField() {
			field := t.Field(i)
			if !holdsReferences(field.Type) {
				continue
			}
			if !field.IsExported() {
				return reflect.Value{}, fmt.Errorf("%w: unexported field %s holds references", ErrUncopyable, field.Name)
			}
			elem, err := c.copy(v.Field(i))
			if err != nil {
				return reflect.Value{}, err
			}
			dup.Field(i).Set(elem)
		}
		return dup, nil

	case reflect.Chan, reflect.UnsafePointer:
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrUncopyable, t)

	default:
		return v, nil
	}
}
