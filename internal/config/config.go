package config // package config loads application configuration from environment variables

import (
	"log"  // log is used to report configuration errors and halt execution
	"os"   // os provides access to environment variables
	"time" // time provides duration types for scheduler settings
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, durations for the
// reclamation schedule.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	JWTSecret string // secret used to verify access tokens issued by the auth service

	VNPayTmnCode    string // merchant (terminal) code assigned by VNPay
	VNPayHashSecret string // shared secret for HMAC-SHA512 signatures
	VNPayBaseURL    string // gateway endpoint the client is redirected to
	VNPayReturnURL  string // URL the gateway redirects the client back to

	ReclaimTTL      time.Duration // age after which an unpaid gateway registration is reclaimed
	ReclaimInterval time.Duration // how often the reclamation sweep runs

	AMQPURL string // RabbitMQ connection URL for invoice events (optional)
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"), // empty allowed
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),

		VNPayTmnCode:    must("VNP_TMN_CODE"),
		VNPayHashSecret: must("VNP_HASH_SECRET"),
		VNPayBaseURL:    must("VNP_URL"),
		VNPayReturnURL:  must("VNP_RETURN_URL"),

		ReclaimTTL:      durOr("RECLAIM_TTL", 15*time.Minute),
		ReclaimInterval: durOr("RECLAIM_INTERVAL", 15*time.Minute),

		AMQPURL: os.Getenv("RABBITMQ_URL"), // empty disables invoice events
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// durOr parses an optional duration variable (e.g. "15m") and falls back
// to the supplied default when unset or malformed.
func durOr(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q: %v", key, v, err)
	}
	return d
}
