package email

// Config selects and configures the email provider.
type Config struct {
	Provider             string `env:"EMAIL_PROVIDER" envDefault:"dev"`
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SendGridAPIKey       string `env:"SENDGRID_API_KEY"`
	SenderName           string `env:"SENDER_NAME" envDefault:"UpVote"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"noreply@upvote.local"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@upvote.local"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

const (
	ProviderPostmark = "postmark"
	ProviderSendGrid = "sendgrid"
	ProviderDev      = "dev"
)
