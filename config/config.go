package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// DefaultConfigFile is read when CONFIG_FILE is not set.
const DefaultConfigFile = "config/config.json"

// AppConfig holds static configuration values. Secrets have no defaults and must come
// from the config file or the environment.
type AppConfig struct {
	AppPort       string
	AdminPassword string
	SecretKey     string
	Debug         bool
	// Storage
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Presentation
	PerPage   int
	SiteWidth int
	// Session cookie
	SessionLifetimeDays int
	CookieSecure        bool
	// Redis for caching and session revocation; empty host disables it
	RedisHost       string
	RedisPort       int
	RedisDB         int
	RedisPassword   string
	CacheTTLSeconds int
	// HTTP
	RateLimitPerMinute int
	AllowedOrigins     []string
	GinMode            string
	GinPath            string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// envKeys maps config keys to their environment variable names.
var envKeys = map[string]string{
	"AppPort":             "APP_PORT",
	"AdminPassword":       "ADMIN_PASSWORD",
	"SecretKey":           "SECRET_KEY",
	"Debug":               "DEBUG",
	"DBDriver":            "DB_DRIVER",
	"DatabaseURI":         "DATABASE_URI",
	"DBHost":              "DB_HOST",
	"DBPort":              "DB_PORT",
	"DBUser":              "DB_USER",
	"DBPassword":          "DB_PASSWORD",
	"DBName":              "DB_NAME",
	"PerPage":             "PER_PAGE",
	"SiteWidth":           "SITE_WIDTH",
	"SessionLifetimeDays": "SESSION_LIFETIME_DAYS",
	"CookieSecure":        "COOKIE_SECURE",
	"RedisHost":           "REDIS_HOST",
	"RedisPort":           "REDIS_PORT",
	"RedisDB":             "REDIS_DB",
	"RedisPassword":       "REDIS_PASSWORD",
	"CacheTTLSeconds":     "CACHE_TTL_SECONDS",
	"RateLimitPerMinute":  "RATE_LIMIT_PER_MINUTE",
	"AllowedOrigins":      "CORS_ALLOWED_ORIGINS",
	"GinMode":             "GIN_MODE",
	"GinPath":             "GIN_PATH",
	"LogLevel":            "LOG_LEVEL",
	"LogPath":             "LOG_PATH",
	"LogMaxSizeMB":        "LOG_MAX_SIZE_MB",
	"LogMaxBackups":       "LOG_MAX_BACKUPS",
	"LogMaxAgeDays":       "LOG_MAX_AGE_DAYS",
	"LogCompress":         "LOG_COMPRESS",
}

var (
	cfg    AppConfig
	loaded bool
	mu     sync.Mutex
)

// Load reads the configuration once and returns the cached copy afterwards.
// Precedence: defaults -> config file -> environment variables.
func Load() (AppConfig, error) {
	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return cfg, nil
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = DefaultConfigFile
	}
	c, err := LoadFrom(path)
	if err != nil {
		return AppConfig{}, err
	}
	cfg = c
	loaded = true
	return cfg, nil
}

// LoadFrom builds a configuration from the given JSON file (optional) and the environment.
func LoadFrom(path string) (AppConfig, error) {
	v := viper.New()
	applyDefaults(v)

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return AppConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return AppConfig{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var c AppConfig
	if err := v.Unmarshal(&c); err != nil {
		return AppConfig{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	normalize(&c)

	if c.AdminPassword == "" {
		return AppConfig{}, errors.New("ADMIN_PASSWORD must be set")
	}
	if c.SecretKey == "" {
		return AppConfig{}, errors.New("SECRET_KEY must be set")
	}
	return c, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("AppPort", "5000")
	v.SetDefault("DBDriver", "sqlite")
	v.SetDefault("DatabaseURI", "")
	v.SetDefault("DBHost", "127.0.0.1")
	v.SetDefault("DBPort", "3306")
	v.SetDefault("DBName", "blog")
	v.SetDefault("PerPage", 20)
	v.SetDefault("SiteWidth", 800)
	v.SetDefault("SessionLifetimeDays", 31)
	v.SetDefault("RedisPort", 6379)
	v.SetDefault("CacheTTLSeconds", 3600)
	v.SetDefault("GinMode", "release")
	v.SetDefault("GinPath", "")
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogMaxSizeMB", 100)
	v.SetDefault("LogMaxBackups", 3)
	v.SetDefault("LogMaxAgeDays", 7)
}

func normalize(c *AppConfig) {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	if c.DBDriver == "sqlite" && c.DatabaseURI == "" {
		c.DatabaseURI = "blog.db"
	}
	if c.PerPage <= 0 {
		c.PerPage = 20
	}
	if c.SessionLifetimeDays <= 0 {
		c.SessionLifetimeDays = 31
	}
	origins := c.AllowedOrigins[:0]
	for _, o := range c.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.AllowedOrigins = origins
	if c.Debug {
		c.GinMode = "debug"
		c.LogLevel = "debug"
	}
}
