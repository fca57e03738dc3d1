// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where everything specific to ContentHub lives: the Mongo
// connection, session and token settings, SMTP, the Google OAuth pair,
// and the background sweep intervals.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connections in the driver pool
	MongoMinPoolSize uint64 // Min connections kept warm in the pool

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionDomain string // Cookie domain (blank means current host)

	// Bearer token lifetime for API clients
	TokenTTL time.Duration

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (empty disables outbound email)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@contenthub.example.com)
	MailFromName string // From display name, also used as the site name in email bodies

	// Base URL for email links (password reset, email verification) and
	// the OAuth callback.
	BaseURL string // e.g., "https://contenthub.example.com" or "http://localhost:3000"

	// Google OAuth configuration (both empty disables the provider)
	GoogleClientID     string
	GoogleClientSecret string

	// Background worker intervals
	PublishSweepInterval time.Duration // how often scheduled content is promoted
	StateCleanupInterval time.Duration // how often expired OAuth states are purged

	// AdminEmail, when set, is promoted to the admin role on startup. It
	// bootstraps the first administrator of a fresh deployment.
	AdminEmail string
}
