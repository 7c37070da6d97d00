package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Scoring modes understood by the scoring engine
const (
	ScoringModeFallback = "fallback"
	ScoringModeExternal = "external"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	JWTSecret   string
	JWTExpiry   time.Duration
	Port        string
	Environment string
	LogLevel    string
	// Security configuration
	AllowedOrigins     string
	TrustedProxies     string
	EnableRateLimit    bool
	RateLimitPerMinute int
	RedisURL           string
	MaxRequestSize     int64
	// Uploads
	UploadDir     string
	MaxUploadSize int64
	// Scoring engine
	ScoringMode            string
	ExternalScoringURL     string
	ExternalScoringTimeout time.Duration
	// Tracing
	OTLPEndpoint string
	OTLPInsecure bool
}

// envBindings maps config keys to the environment variables that can set them.
// The AI_* names are kept for deployments configured before the scoring keys
// were renamed.
var envBindings = map[string][]string{
	"database_url":                {"DATABASE_URL"},
	"jwt_secret":                  {"JWT_SECRET"},
	"jwt_expiry":                  {"JWT_EXPIRES_IN", "JWT_EXPIRY"},
	"port":                        {"PORT"},
	"env":                         {"ENV"},
	"log_level":                   {"LOG_LEVEL"},
	"allowed_origins":             {"ALLOWED_ORIGINS"},
	"trusted_proxies":             {"TRUSTED_PROXIES"},
	"enable_rate_limit":           {"ENABLE_RATE_LIMIT"},
	"rate_limit_per_minute":       {"RATE_LIMIT_PER_MINUTE"},
	"redis_url":                   {"REDIS_URL"},
	"max_request_size":            {"MAX_REQUEST_SIZE"},
	"upload_dir":                  {"UPLOAD_DIR"},
	"max_upload_size":             {"MAX_UPLOAD_SIZE"},
	"scoring.mode":                {"SCORING_MODE", "AI_MODE"},
	"scoring.external_base_url":   {"EXTERNAL_SCORING_URL", "AI_SERVICE_URL"},
	"scoring.external_timeout_ms": {"EXTERNAL_SCORING_TIMEOUT_MS", "AI_TIMEOUT_MS"},
	"otel.exporter_otlp_endpoint": {"OTEL_EXPORTER_OTLP_ENDPOINT"},
	"otel.exporter_otlp_insecure": {"OTEL_EXPORTER_OTLP_INSECURE"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("jwt_expiry", "24h")
	v.SetDefault("port", "8080")
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("enable_rate_limit", true)
	v.SetDefault("rate_limit_per_minute", 120)
	v.SetDefault("max_request_size", 2*1024*1024)
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("max_upload_size", 10*1024*1024)
	v.SetDefault("scoring.mode", ScoringModeFallback)
	v.SetDefault("scoring.external_timeout_ms", 5000)
	v.SetDefault("otel.exporter_otlp_insecure", true)
}

// Load reads configuration from defaults, an optional config.yaml (in the
// working directory or /etc/partnex) and the environment, then validates it.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/partnex/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		DatabaseURL:            v.GetString("database_url"),
		JWTSecret:              v.GetString("jwt_secret"),
		JWTExpiry:              parseExpiry(v.GetString("jwt_expiry")),
		Port:                   v.GetString("port"),
		Environment:            v.GetString("env"),
		LogLevel:               v.GetString("log_level"),
		AllowedOrigins:         v.GetString("allowed_origins"),
		TrustedProxies:         v.GetString("trusted_proxies"),
		EnableRateLimit:        v.GetBool("enable_rate_limit"),
		RateLimitPerMinute:     v.GetInt("rate_limit_per_minute"),
		RedisURL:               v.GetString("redis_url"),
		MaxRequestSize:         v.GetInt64("max_request_size"),
		UploadDir:              v.GetString("upload_dir"),
		MaxUploadSize:          v.GetInt64("max_upload_size"),
		ScoringMode:            strings.ToLower(strings.TrimSpace(v.GetString("scoring.mode"))),
		ExternalScoringURL:     strings.TrimRight(strings.TrimSpace(v.GetString("scoring.external_base_url")), "/"),
		ExternalScoringTimeout: time.Duration(v.GetInt64("scoring.external_timeout_ms")) * time.Millisecond,
		OTLPEndpoint:           v.GetString("otel.exporter_otlp_endpoint"),
		OTLPInsecure:           v.GetBool("otel.exporter_otlp_insecure"),
	}
}

// parseExpiry accepts Go durations ("24h") and the day shorthand ("1d", "7d").
// Anything unparsable falls back to 24 hours.
func parseExpiry(s string) time.Duration {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return 24 * time.Hour
}

// Validate checks the loaded configuration for values the service cannot run with
func (c *Config) Validate() error {
	switch c.ScoringMode {
	case ScoringModeFallback, ScoringModeExternal:
	default:
		return fmt.Errorf("invalid scoring mode %q: must be %q or %q", c.ScoringMode, ScoringModeFallback, ScoringModeExternal)
	}
	if c.ExternalScoringTimeout <= 0 {
		return fmt.Errorf("external scoring timeout must be positive, got %s", c.ExternalScoringTimeout)
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("rate limit per minute must be positive, got %d", c.RateLimitPerMinute)
	}
	if c.IsProduction() {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required in production")
		}
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasExternalScoring returns true if an external scoring service URL is configured
func (c *Config) HasExternalScoring() bool {
	return c.ExternalScoringURL != ""
}

// GetAllowedOrigins returns a slice of allowed CORS origins
func (c *Config) GetAllowedOrigins() []string {
	if c.AllowedOrigins == "" {
		if c.IsDevelopment() {
			return []string{
				"http://localhost:3000",
				"http://localhost:3001",
				"http://localhost:8080",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:3001",
				"http://127.0.0.1:8080",
			}
		}
		return []string{}
	}
	origins := strings.Split(c.AllowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

// GetTrustedProxies returns a slice of trusted proxy IPs
func (c *Config) GetTrustedProxies() []string {
	if c.TrustedProxies == "" {
		return []string{} // No trusted proxies by default
	}
	return strings.Split(c.TrustedProxies, ",")
}
