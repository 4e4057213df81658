package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/upvote/modules/widget"
	"github.com/dmitrymomot/upvote/pkg/file"
)

func runPublishWidget(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("publish-widget", flag.ContinueOnError)
	dir := fs.String("dir", "", "write to a local directory instead of S3")
	baseURL := fs.String("base-url", "", "public URL of -dir")
	prefix := fs.String("prefix", "", "key prefix, e.g. v1/")
	maxAge := fs.Duration("max-age", time.Hour, "Cache-Control max-age")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		pub file.Publisher
		err error
	)
	if *dir != "" {
		pub, err = file.NewLocalPublisher(*dir, *baseURL)
	} else {
		pub, err = file.NewS3Publisher(ctx, a.cfg.S3, file.WithS3UploadTimeout(time.Minute))
	}
	if err != nil {
		return err
	}

	published, err := publishWidget(ctx, pub, *prefix, *maxAge)
	if err != nil {
		return err
	}
	for _, p := range published {
		a.log.InfoContext(ctx, "asset published",
			slog.String("key", p.Key),
			slog.String("url", p.URL),
			slog.Int("size", p.Size),
		)
	}
	return nil
}

// widgetAssets returns the loader script and button icon as served by /widget.js and /icon.svg.
func widgetAssets(prefix string, maxAge time.Duration) []file.Object {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	cacheControl := fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))
	return []file.Object{
		{
			Key:          prefix + "widget.js",
			ContentType:  "application/javascript; charset=utf-8",
			CacheControl: cacheControl,
			Body:         widget.LoaderScript(),
		},
		{
			Key:          prefix + "icon.svg",
			ContentType:  "image/svg+xml",
			CacheControl: cacheControl,
			Body:         widget.Icon(),
		},
	}
}

func publishWidget(ctx context.Context, pub file.Publisher, prefix string, maxAge time.Duration) ([]*file.Published, error) {
	assets := widgetAssets(prefix, maxAge)
	out := make([]*file.Published, 0, len(assets))
	for _, obj := range assets {
		p, err := pub.Publish(ctx, obj)
		if err != nil {
			return nil, fmt.Errorf("publish %s: %w", obj.Key, err)
		}
		out = append(out, p)
	}
	return out, nil
}
