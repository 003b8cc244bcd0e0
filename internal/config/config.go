package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMongo  = "mongo"
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// OAuth role overwrite policies accepted by OAUTH_ROLE_OVERWRITE_POLICY.
const (
	OverwriteAlways          = "always"
	OverwriteWhenHintPresent = "whenHintPresent"
)

// Config holds all runtime configuration values. It is built once at
// startup and passed by value; nothing reads the environment after Load.
type Config struct {
	Env      string // application environment (dev, test, prod)
	Port     string // HTTP port to listen on
	LogLevel string // debug, info, warn, error

	StoreDriver string // mongo, mysql or memory
	DBUser      string // mysql user
	DBPass      string // mysql password (optional)
	DBHost      string // mysql host
	DBPort      string // mysql port
	DBName      string // mysql database name

	JWTSecret  string        // HMAC key for bearer tokens
	AccessTTL  time.Duration // bearer token lifetime
	BcryptCost int           // bcrypt cost for password hashing

	VerificationCodeTTL time.Duration // lifetime of an email verification code
	SweepInterval       time.Duration // how often expired unverified accounts are removed; 0 disables

	HintSecret      string        // key for the OAuth role hint carriers
	HintTTL         time.Duration // lifetime of the role hint cookie and state
	CookieSecure    bool          // Secure attribute on carrier cookies
	OAuthOverwrite  string        // always | whenHintPresent
	OAuthSuccessURL string        // frontend page receiving token, name, email, role
	OAuthFailureURL string        // frontend page receiving error

	AllowedOrigins []string // CORS origins
	Version        string   // reported by /api/version
	Commit         string   // reported by /api/version
}

// Load reads an optional .env file and then the environment. Missing or
// malformed required variables stop the process.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}
	cfg, err := Parse(os.LookupEnv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Parse builds a Config from lookup. All problems are reported together.
func Parse(lookup func(string) (string, bool)) (Config, error) {
	r := &reader{lookup: lookup}
	cfg := Config{
		Env:      r.str("APP_ENV", "dev"),
		Port:     r.str("APP_PORT", "8080"),
		LogLevel: r.str("LOG_LEVEL", "info"),

		StoreDriver: strings.ToLower(r.str("STORE_DRIVER", StoreMongo)),

		JWTSecret:  r.must("JWT_SECRET"),
		AccessTTL:  r.durVal("ACCESS_TOKEN_TTL", 24*time.Hour),
		BcryptCost: r.intVal("BCRYPT_COST", 10),

		VerificationCodeTTL: r.durVal("VERIFICATION_CODE_TTL", 15*time.Minute),
		SweepInterval:       r.durVal("VERIFICATION_SWEEP_INTERVAL", time.Minute),

		HintTTL:         r.durVal("OAUTH_HINT_TTL", 180*time.Second),
		CookieSecure:    r.boolVal("COOKIE_SECURE", true),
		OAuthOverwrite:  r.str("OAUTH_ROLE_OVERWRITE_POLICY", OverwriteWhenHintPresent),
		OAuthSuccessURL: r.str("OAUTH_SUCCESS_URL", "http://localhost:5500/oauth-success.html"),
		OAuthFailureURL: r.str("OAUTH_FAILURE_URL", "http://localhost:5500/login.html"),

		AllowedOrigins: r.list("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5500,http://127.0.0.1:5500,http://localhost:8080"),
		Version:        r.str("APP_VERSION", "2.0.0"),
		Commit:         r.str("APP_COMMIT", "unknown"),
	}
	cfg.HintSecret = r.str("OAUTH_HINT_SECRET", cfg.JWTSecret)

	switch cfg.StoreDriver {
	case StoreMySQL:
		cfg.DBUser = r.must("DB_USER")
		cfg.DBPass = r.str("DB_PASS", "")
		cfg.DBHost = r.must("DB_HOST")
		cfg.DBPort = r.str("DB_PORT", "3306")
		cfg.DBName = r.must("DB_NAME")
	case StoreMongo, StoreMemory:
	default:
		r.fail("invalid STORE_DRIVER %q", cfg.StoreDriver)
	}
	switch cfg.OAuthOverwrite {
	case OverwriteAlways, OverwriteWhenHintPresent:
	default:
		r.fail("invalid OAUTH_ROLE_OVERWRITE_POLICY %q", cfg.OAuthOverwrite)
	}
	if cfg.AccessTTL <= 0 {
		r.fail("ACCESS_TOKEN_TTL must be positive")
	}
	if cfg.VerificationCodeTTL <= 0 {
		r.fail("VERIFICATION_CODE_TTL must be positive")
	}
	if len(r.errs) > 0 {
		return Config{}, errors.Join(r.errs...)
	}
	return cfg, nil
}

// reader wraps an env lookup and records every problem it meets, so a
// misconfigured deploy reports all missing variables at once.
type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) fail(format string, args ...any) {
	r.errs = append(r.errs, fmt.Errorf(format, args...))
}

func (r *reader) get(key string) string {
	v, ok := r.lookup(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// must retrieves the value of a required variable.
func (r *reader) must(key string) string {
	v := r.get(key)
	if v == "" {
		r.fail("missing required env var: %s", key)
	}
	return v
}

func (r *reader) str(key, def string) string {
	if v := r.get(key); v != "" {
		return v
	}
	return def
}

func (r *reader) intVal(key string, def int) int {
	v := r.get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail("invalid int for %s: %q", key, v)
		return def
	}
	return n
}

func (r *reader) durVal(key string, def time.Duration) time.Duration {
	v := r.get(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail("invalid duration for %s: %q", key, v)
		return def
	}
	return d
}

func (r *reader) boolVal(key string, def bool) bool {
	v := r.get(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail("invalid bool for %s: %q", key, v)
		return def
	}
	return b
}

func (r *reader) list(key, def string) []string {
	var out []string
	for _, p := range strings.Split(r.str(key, def), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
