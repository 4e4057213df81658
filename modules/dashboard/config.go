package dashboard

// Config holds settings of the dashboard API.
type Config struct {
	// PublicURL is the origin the embed snippet loads widget.js from.
	PublicURL string `env:"APP_URL" envDefault:"http://localhost:8080"`
}
