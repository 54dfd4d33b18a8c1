// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration: ports, TLS, log level
// and the like live in CoreConfig.
//
// Add fields here as the service grows. The struct is passed to most
// lifecycle hooks, so any configuration needed during startup, request
// handling, or shutdown should live here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connections in the driver pool
	MongoMinPoolSize uint64 // Min connections the driver keeps warm

	// Session management configuration
	SessionSecret     string // HMAC key for session tokens (must be strong in production)
	SessionCookieName string // Session cookie name (default: session)

	// Google federated sign-in
	GoogleClientID string // OAuth2 client ID tokens must be issued for

	// Image storage configuration
	StorageType      string // Storage backend: "cloudinary" or "local"
	CloudinaryURL    string // cloudinary:// credential URL (cloudinary backend)
	CloudinaryFolder string // Folder uploads land in (default: products)
	StorageLocalPath string // Local storage path (local backend)
	StorageLocalURL  string // URL prefix local files are served under

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for Mailpit)
	MailSMTPPass string // SMTP password
	MailFrom     string // From address (e.g., "Storefront <no-reply@example.com>")
	SiteName     string // Display name used in outgoing mail

	// Razorpay payment gateway
	RazorpayKeyID     string // Public key id, also sent to the frontend
	RazorpayKeySecret string // Secret used for order creation and signature checks

	// API rate limiting
	APIRateLimit  int           // Requests allowed per client IP per window
	APIRateWindow time.Duration // Window the limit applies over
}
