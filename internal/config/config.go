package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. The struct is built once at startup and
// treated as read-only afterwards; nothing in the request path mutates
// it.
type Config struct {
	Env  string // application environment (dev/test/prod)
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	RabbitURL string // AMQP endpoint for notification events (optional)

	// Signing secrets. User access and refresh tokens, and anonymous
	// client tokens, each use their own secret; a token minted for one
	// principal kind must never validate as another.
	JWTSecret        string // user access token secret
	JWTRefreshSecret string // user refresh token secret
	ClientJWTSecret  string // anonymous client token secret

	AccessTTL      time.Duration // access token time-to-live
	RefreshTTL     time.Duration // refresh session time-to-live
	LongRefreshTTL time.Duration // refresh session TTL when "remember me" is set

	LoginAttemptsToBlock int           // failed logins before lockout
	BlockDuration        time.Duration // how long a lockout lasts
	VerificationTTL      time.Duration // how long a verification code stays fresh
	MaxRefreshSessions   int           // live refresh sessions allowed per user
	MaxPasswordAttempts  int           // salt/hash retries in the password-uniqueness probe
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must(); missing
// values cause the process to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:    must("APP_ENV"),
		Port:   must("APP_PORT"),
		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"), // empty allowed
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		RabbitURL: os.Getenv("RABBITMQ_URL"),

		JWTSecret:        must("JWT_SECRET"),
		JWTRefreshSecret: must("JWT_REFRESH_SECRET"),
		ClientJWTSecret:  must("CLIENTS_JWT_SECRET"),

		AccessTTL:      mustDur("ACCESS_TOKEN_TTL"),
		RefreshTTL:     mustDur("REFRESH_TOKEN_TTL"),
		LongRefreshTTL: mustDur("REFRESH_TOKEN_TTL_LONG"),

		LoginAttemptsToBlock: mustInt("LOGIN_ATTEMPTS_TO_BLOCK"),
		BlockDuration:        mustDur("BLOCK_DURATION"),
		VerificationTTL:      mustDur("VERIFICATION_TTL"),
		MaxRefreshSessions:   mustInt("MAX_REFRESH_SESSIONS_COUNT"),
		MaxPasswordAttempts:  mustInt("MAX_PASSWORD_ATTEMPTS"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an
// integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// mustDur is like must() but parses the value as a Go duration
// (e.g. "15m", "2h", "720h").
func mustDur(key string) time.Duration {
	s := must(key)
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, s)
	}
	return d
}
