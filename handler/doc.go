// Package handler provides typed HTTP handlers on top of net/http.
//
// A HandlerFunc receives a request Context and a bound request struct and
// returns a Response. Wrap converts it to an http.HandlerFunc, running the
// configured binders first and routing every bind or render error through a
// single ErrorHandler:
//
//	type renameRequest struct {
//		ID   string `json:"id"`
//		Name string `json:"name"`
//	}
//
//	func rename(ctx handler.Context, req renameRequest) handler.Response {
//		app, err := svc.Rename(ctx, req.ID, req.Name)
//		if err != nil {
//			return handler.Error(err)
//		}
//		return handler.JSON(map[string]any{"application": app})
//	}
//
//	r.Patch("/applications", handler.Wrap(rename,
//		handler.WithBinders[handler.Context, renameRequest](binder.JSON()),
//		handler.WithErrorHandler[handler.Context, renameRequest](errHandler),
//	))
//
// NewJSONErrorHandler renders errors as flat JSON objects ({"error": "..."})
// and logs them once, at WARN for 4xx and ERROR for 5xx.
package handler
