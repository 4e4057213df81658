package account

// Config holds the redirect targets and cookie names of the browser-facing
// auth routes.
type Config struct {
	LoginPath       string `env:"AUTH_LOGIN_PATH" envDefault:"/auth/login"`
	AfterLoginPath  string `env:"AUTH_AFTER_LOGIN_PATH" envDefault:"/dashboard"`
	StateCookieName string `env:"OAUTH_STATE_COOKIE" envDefault:"upvote_oauth_state"`
}
