package widget

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/pkg/binder"
	"github.com/dmitrymomot/upvote/pkg/ratelimiter"
)

// RouterOptions configures the widget routes. Limiter is optional; without it
// widget writes are not rate limited.
type RouterOptions struct {
	Config  Config
	API     *API
	Limiter ratelimiter.RateLimiter
	Logger  *slog.Logger
}

// Router serves the loader script, the iframe host page and the public API.
//
// Example:
//
//	r.Mount("/", widget.Router(widget.RouterOptions{
//	    Config:  cfg,
//	    API:     widget.NewAPI(feedbackSvc, errHandler),
//	    Limiter: bucket,
//	}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Method(http.MethodGet, "/widget.js", assetHandler("widget.js", "application/javascript; charset=utf-8", LoaderScript(), opts.Config.AssetMaxAge))
	r.Method(http.MethodGet, "/icon.svg", assetHandler("icon.svg", "image/svg+xml", Icon(), opts.Config.AssetMaxAge))
	r.Get("/widget", handler.Wrap(func(ctx handler.Context, req PageRequest) handler.Response {
		return handler.Templ(hostPage(req.Theme))
	}, handler.WithBinders[handler.Context, PageRequest](binder.Query())))

	if opts.API != nil {
		r.Route("/api/widget", func(r chi.Router) {
			r.Use(CORS)
			if opts.Limiter != nil {
				r.Use(RateLimit(opts.Limiter, opts.Logger))
			}
			r.Mount("/", opts.API.Handle())
		})
	}

	return r
}

type PageRequest struct {
	Theme string `query:"theme"`
}
