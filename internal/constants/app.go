package constants

// Application Information
const (
	AppName    = "API Panel"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Default Application Settings
const (
	DefaultPort        = "8080"
	DefaultEnvironment = EnvDevelopment
)

// Rate limit key prefixes (redis)
const (
	RateLimitKeyPrefix = "apipanel:ratelimit:"
)

// RefreshCookieName is the httpOnly cookie carrying the opaque refresh token.
// The cookie is scoped to the auth route group so it is never sent elsewhere.
const (
	RefreshCookieName = "refresh_token"
	RefreshCookiePath = "/v1/api/auth"
)
