package binder

import "net/http"

// Query binds URL query parameters using `query:"name"` struct tags.
// Slices accept repeated keys or comma separated values.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrFailedToParseQuery)
	}
}
