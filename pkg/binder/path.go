package binder

import (
	"net/http"
	"reflect"
)

// Path binds router path parameters using `path:"name"` struct tags. The
// extractor is usually chi.URLParam.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return ErrFailedToParsePath
		}

		values := make(map[string][]string)
		rt := rv.Elem().Type()
		for i := range rt.NumField() {
			name, skip := parseFieldTag(rt.Field(i), "path")
			if skip || rt.Field(i).Tag.Get("path") == "" {
				continue
			}
			if val := extractor(r, name); val != "" {
				values[name] = []string{val}
			}
		}
		if len(values) == 0 {
			return ErrBinderNotApplicable
		}
		return bindToStruct(v, "path", values, ErrFailedToParsePath)
	}
}
