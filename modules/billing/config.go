package billing

import "strings"

// Config holds the redirect targets of hosted checkouts.
type Config struct {
	PublicURL  string `env:"APP_URL" envDefault:"http://localhost:8080"`
	ReturnPath string `env:"BILLING_RETURN_PATH" envDefault:"/dashboard"`
}

// ReturnURL is where the provider sends the customer after payment.
func (c Config) ReturnURL() string {
	return strings.TrimRight(c.PublicURL, "/") + c.ReturnPath
}
