package widget

import "time"

// Config controls the public widget surface.
type Config struct {
	// RateLimit is the number of widget writes a client IP may make per
	// endpoint and minute.
	RateLimit int `env:"WIDGET_RATE_LIMIT" envDefault:"60"`
	// AssetMaxAge is the Cache-Control max-age of the loader script and icon.
	AssetMaxAge time.Duration `env:"WIDGET_ASSET_MAX_AGE" envDefault:"1h"`
}
