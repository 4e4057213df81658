package cookie

import (
	"net/http"
	"strings"
)

// Config holds cookie defaults. Secrets is a comma separated list; the
// first entry signs, every entry verifies.
type Config struct {
	Secrets  string        `env:"COOKIE_SECRETS"`
	Domain   string        `env:"COOKIE_DOMAIN"`
	Secure   bool          `env:"COOKIE_SECURE" envDefault:"false"`
	SameSite http.SameSite `env:"COOKIE_SAME_SITE" envDefault:"2"` // 2 = Lax
}

func (c Config) secrets() []string {
	var out []string
	for s := range strings.SplitSeq(c.Secrets, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// NewFromConfig creates a Manager from cfg. fallbackSecret is used when
// COOKIE_SECRETS is empty, usually the session signing key.
func NewFromConfig(cfg Config, fallbackSecret string, opts ...Option) (*Manager, error) {
	secrets := cfg.secrets()
	if len(secrets) == 0 && fallbackSecret != "" {
		secrets = []string{fallbackSecret}
	}

	base := []Option{WithSecure(cfg.Secure)}
	if cfg.Domain != "" {
		base = append(base, WithDomain(cfg.Domain))
	}
	if cfg.SameSite != 0 {
		base = append(base, WithSameSite(cfg.SameSite))
	}
	return New(secrets, append(base, opts...)...)
}
