package stats

import (
	"fmt"
	"reflect"
	"strings"
)

// Clone returns a copy of a block. Blocks hold only value fields, so a
// shallow struct copy is a deep copy.
func Clone(b Block) Block {
	if b == nil {
		return nil
	}
	v := reflect.ValueOf(b).Elem()
	out := reflect.New(v.Type())
	out.Elem().Set(v)
	return out.Interface().(Block)
}

// Accumulate applies src onto dst field by field according to each field's op
// tag. Both must be pointers to the same struct type. Nested structs are
// walked recursively. It is exported for other op-tagged accumulators such as
// team totals.
func Accumulate(dst, src any) error {
	dv := reflect.ValueOf(dst)
	sv := reflect.ValueOf(src)
	if dv.Kind() != reflect.Pointer || sv.Kind() != reflect.Pointer {
		return fmt.Errorf("accumulate: want pointers, got %T and %T", dst, src)
	}
	if dv.Type() != sv.Type() {
		return fmt.Errorf("accumulate: type mismatch %T and %T", dst, src)
	}
	accumulate(dv.Elem(), sv.Elem())
	return nil
}

func accumulate(dst, src reflect.Value) {
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		d, s := dst.Field(i), src.Field(i)

		if f.Type.Kind() == reflect.Struct {
			accumulate(d, s)
			continue
		}
		if !d.CanSet() {
			continue
		}

		switch f.Tag.Get("op") {
		case "add":
			switch d.Kind() {
			case reflect.Int, reflect.Int64, reflect.Int32:
				d.SetInt(d.Int() + s.Int())
			case reflect.Float64, reflect.Float32:
				d.SetFloat(d.Float() + s.Float())
			}
		case "max":
			switch d.Kind() {
			case reflect.Int, reflect.Int64, reflect.Int32:
				if s.Int() > d.Int() {
					d.SetInt(s.Int())
				}
			case reflect.Float64, reflect.Float32:
				if s.Float() > d.Float() {
					d.SetFloat(s.Float())
				}
			}
		}
	}
}

// Fields flattens a block into its JSON field names and values, including
// derived fields.
func Fields(b Block) map[string]float64 {
	out := map[string]float64{}
	if b == nil {
		return out
	}
	collect(reflect.ValueOf(b).Elem(), out)
	return out
}

func collect(v reflect.Value, out map[string]float64) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fv := v.Field(i)
		if f.Type.Kind() == reflect.Struct && f.Anonymous {
			collect(fv, out)
			continue
		}
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		switch fv.Kind() {
		case reflect.Int, reflect.Int64, reflect.Int32:
			out[name] = float64(fv.Int())
		case reflect.Float64, reflect.Float32:
			out[name] = fv.Float()
		}
	}
}
