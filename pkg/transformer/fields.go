package transformer

import (
	"reflect"
	"strings"
)

// field resolves a named attribute of a record. Maps are addressed by key;
// struct pointers by exported field name, matched case-insensitively with
// underscores ignored ("table_name" finds TableName).
type field struct {
	m map[string]any
	v reflect.Value
}

func lookup(record any, name string) (field, bool) {
	if m, ok := record.(map[string]any); ok {
		if _, present := m[name]; !present {
			return field{}, false
		}
		return field{m: m, v: reflect.ValueOf(name)}, true
	}

	rv := reflect.ValueOf(record)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return field{}, false
	}
	want := strings.ReplaceAll(name, "_", "")
	fv := rv.Elem().FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, want) })
	if !fv.IsValid() || !fv.CanSet() {
		return field{}, false
	}
	return field{v: fv}, true
}

func (f field) get() any {
	if f.m != nil {
		return f.m[f.v.String()]
	}
	return f.v.Interface()
}

// set stores value, converting it to the struct field's type when needed.
func (f field) set(value any) bool {
	if f.m != nil {
		f.m[f.v.String()] = value
		return true
	}
	if value == nil {
		f.v.Set(reflect.Zero(f.v.Type()))
		return true
	}
	nv := reflect.ValueOf(value)
	if !nv.Type().ConvertibleTo(f.v.Type()) {
		return false
	}
	f.v.Set(nv.Convert(f.v.Type()))
	return true
}

func (f field) remove() {
	if f.m != nil {
		delete(f.m, f.v.String())
		return
	}
	f.v.Set(reflect.Zero(f.v.Type()))
}
