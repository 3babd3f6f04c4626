package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	GraceWindow    time.Duration // undo window before a delete becomes permanent (default: 5s)
	ResyncInterval time.Duration // interval to re-list open sessions from the store (default: 15m)

	// Classifier
	ClassifierBaseURL string        // OpenAI-compatible endpoint (empty = fallback-only classification)
	ClassifierAPIKey  string        // API key for the endpoint
	ClassifierModel   string        // model name, ex: gemini-2.0-flash
	ClassifierTimeout time.Duration // hard deadline per classification call (default: 8s)
	MetadataTimeout   time.Duration // deadline for the page metadata fetch (default: 6s)

	DomainRulesFile string // optional YAML of domain→category overrides

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// HTTP access
	AllowedOrigins  []string // CORS origins for the web app and extension
	RateLimitBurst  int      // per-IP burst for write endpoints
	RateLimitPerMin int      // per-IP sustained writes per minute
	TrustProxy      bool     // true => trust X-Forwarded-For headers
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("LINKNEST_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("LINKNEST_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("LINKNEST_LOG_LEVEL", "info"),
		PrettyLog: mustBool("LINKNEST_PRETTY_LOG", true),

		// Engine
		GraceWindow:    mustDuration("LINKNEST_GRACE_WINDOW", 5*time.Second),
		ResyncInterval: mustDuration("LINKNEST_RESYNC_INTERVAL", 15*time.Minute),

		// Classifier
		ClassifierBaseURL: getenv("LINKNEST_CLASSIFIER_BASE_URL", ""),
		ClassifierAPIKey:  getenv("LINKNEST_CLASSIFIER_API_KEY", ""),
		ClassifierModel:   getenv("LINKNEST_CLASSIFIER_MODEL", "gemini-2.0-flash"),
		ClassifierTimeout: mustDuration("LINKNEST_CLASSIFIER_TIMEOUT", 8*time.Second),
		MetadataTimeout:   mustDuration("LINKNEST_METADATA_TIMEOUT", 6*time.Second),

		DomainRulesFile: getenv("LINKNEST_DOMAIN_RULES_FILE", ""),

		// Redis settings
		RedisAddr:             requireEnv("LINKNEST_REDIS_ADDR"),
		RedisUser:             getenv("LINKNEST_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("LINKNEST_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("LINKNEST_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("LINKNEST_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// HTTP access
		AllowedOrigins:  splitAndTrim(getenv("LINKNEST_ALLOWED_ORIGINS", "")),
		RateLimitBurst:  getenvInt("LINKNEST_RATE_LIMIT_BURST", 20),
		RateLimitPerMin: getenvInt("LINKNEST_RATE_LIMIT_PER_MIN", 60),
		TrustProxy:      mustBool("LINKNEST_TRUST_PROXY", true),
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: LINKNEST_REDIS_PASSWORD is required when LINKNEST_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		cfgCopy.ClassifierAPIKey = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
