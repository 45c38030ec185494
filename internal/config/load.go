// AngelaMos | 2026
// load.go

package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// maxMessageColumn is the width of the comment and response_message
// columns.
const maxMessageColumn = 2000

// Load layers built-in defaults, the optional YAML file at path and the
// process environment, in that order, and validates the result.
func Load(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	//nolint:errcheck // a missing .env file is the normal case outside development
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(defaultsProvider{}, nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.check(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}

// defaultsProvider feeds the built-in settings to koanf as the lowest
// precedence layer.
type defaultsProvider struct{}

func (defaultsProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("defaults provider does not support ReadBytes")
}

func (defaultsProvider) Read() (map[string]any, error) {
	local := []string{"http://localhost:3000"}

	return map[string]any{
		"app": map[string]any{
			"name":        "Advisory Backend",
			"version":     "1.0.0",
			"environment": "development",
		},
		"server": map[string]any{
			"host":             "0.0.0.0",
			"port":             8080,
			"read_timeout":     "30s",
			"write_timeout":    "30s",
			"idle_timeout":     "120s",
			"shutdown_timeout": "15s",
		},
		"database": map[string]any{
			"max_open_conns":     25,
			"max_idle_conns":     5,
			"conn_max_lifetime":  "1h",
			"conn_max_idle_time": "30m",
			"auto_migrate":       true,
		},
		"redis": map[string]any{
			"pool_size":      10,
			"min_idle_conns": 5,
		},
		"jwt": map[string]any{
			"access_token_expire":  "15m",
			"refresh_token_expire": "168h",
			"issuer":               "advisory-backend",
			"audience":             "advisory-backend-api",
			"private_key_path":     "keys/private.pem",
			"public_key_path":      "keys/public.pem",
		},
		"rate_limit": map[string]any{
			"requests": 100,
			"window":   "1m",
			"burst":    20,
		},
		"cors": map[string]any{
			"allowed_origins":   local,
			"allowed_methods":   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			"allowed_headers":   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			"allow_credentials": true,
			"max_age":           300,
		},
		"log": map[string]any{
			"level":  "info",
			"format": "json",
		},
		"otel": map[string]any{
			"enabled":      false,
			"insecure":     true,
			"sample_rate":  0.1,
			"service_name": "advisory-backend",
		},
		"advisory": map[string]any{
			"timezone":           "UTC",
			"max_message_length": 2000,
			"list_cache_ttl":     "30s",
			"booking_rate":       10,
			"booking_burst":      3,
		},
		"notify": map[string]any{
			"enabled":         true,
			"channel":         "advisory:events",
			"write_timeout":   "10s",
			"ping_interval":   "30s",
			"allowed_origins": local,
		},
	}, nil
}

// envBindings maps the recognised environment variables onto config paths.
// Anything else in the environment is ignored.
var envBindings = map[string]string{
	"ENVIRONMENT": "app.environment",
	"HOST":        "server.host",
	"PORT":        "server.port",

	"DATABASE_URL":          "database.url",
	"DATABASE_AUTO_MIGRATE": "database.auto_migrate",
	"REDIS_URL":             "redis.url",

	"JWT_PRIVATE_KEY_PATH":     "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":      "jwt.public_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":  "jwt.access_token_expire",
	"JWT_REFRESH_TOKEN_EXPIRE": "jwt.refresh_token_expire",
	"JWT_ISSUER":               "jwt.issuer",
	"JWT_AUDIENCE":             "jwt.audience",

	"RATE_LIMIT_REQUESTS": "rate_limit.requests",
	"RATE_LIMIT_WINDOW":   "rate_limit.window",
	"RATE_LIMIT_BURST":    "rate_limit.burst",

	"LOG_LEVEL":  "log.level",
	"LOG_FORMAT": "log.format",

	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",

	"ADVISORY_TIMEZONE":       "advisory.timezone",
	"ADVISORY_LIST_CACHE_TTL": "advisory.list_cache_ttl",
	"ADVISORY_BOOKING_RATE":   "advisory.booking_rate",
	"ADVISORY_BOOKING_BURST":  "advisory.booking_burst",

	"NOTIFY_ENABLED": "notify.enabled",
	"NOTIFY_CHANNEL": "notify.channel",
}

// envKey returns "" for unbound variables, which koanf skips.
func envKey(name string) string {
	return envBindings[name]
}

// check reports every problem found rather than stopping at the first.
func (c *Config) check() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	required := []struct{ value, name string }{
		{c.Database.URL, "DATABASE_URL"},
		{c.Redis.URL, "REDIS_URL"},
		{c.JWT.PrivateKeyPath, "JWT_PRIVATE_KEY_PATH"},
		{c.JWT.PublicKeyPath, "JWT_PUBLIC_KEY_PATH"},
	}
	for _, r := range required {
		if r.value == "" {
			fail("%s is required", r.name)
		}
	}

	if c.CORS.AllowCredentials && slices.Contains(c.CORS.AllowedOrigins, "*") {
		fail("CORS wildcard '*' cannot be combined with allow_credentials")
	}
	if c.IsProduction() && c.Otel.Enabled && c.Otel.Insecure {
		fail("OTEL_INSECURE must be false in production")
	}

	positive := []struct {
		value time.Duration
		name  string
	}{
		{c.Server.ReadTimeout, "server.read_timeout"},
		{c.Server.WriteTimeout, "server.write_timeout"},
		{c.JWT.AccessTokenExpire, "jwt.access_token_expire"},
		{c.JWT.RefreshTokenExpire, "jwt.refresh_token_expire"},
	}
	for _, p := range positive {
		if p.value <= 0 {
			fail("%s must be positive", p.name)
		}
	}

	if _, err := time.LoadLocation(c.Advisory.Timezone); err != nil {
		fail("advisory.timezone: %w", err)
	}
	if n := c.Advisory.MaxMessageLength; n <= 0 || n > maxMessageColumn {
		fail("advisory.max_message_length must be between 1 and %d", maxMessageColumn)
	}
	if c.Notify.Enabled && c.Notify.Channel == "" {
		fail("notify.channel is required when notify is enabled")
	}

	return errors.Join(errs...)
}
