package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/conf-portal"
	ConfigFileName    = "portal.yml"

	SourceDefault     = "default"
	SourceFile        = "file"
	SourceEnvironment = "environment"
)

// PortalConfig holds every setting the portal reads at startup.
type PortalConfig struct {
	AppName            string   `validate:"required"`
	Env                string   `validate:"oneof=dev stg prod"`
	Debug              bool
	AppFQDN            string   `validate:"required"`
	BaseURL            string   `validate:"required,url"`
	Host               string   `validate:"required"`
	Port               int      `validate:"min=1,max=65535"`
	CORSAllowedOrigins []string `validate:"min=1"`

	DatabaseURL           string `validate:"required"`
	RedisURL              string `validate:"required"`
	RedisDB               int    `validate:"min=0,max=15"`
	TokenBlacklistRedisDB int    `validate:"min=0,max=15"`
	RateLimitPerMinute    int    `validate:"min=0"`

	JWTSecretKey                string `validate:"required"`
	JWTAccessTokenExpireMinutes int    `validate:"min=1"`
	RefreshTokenExpireDays      int    `validate:"min=1"`
	RefreshTokenHashSalt        string
	RefreshTokenHashPepper      string
	PasswordHashIterations      int `validate:"min=1"`

	FirebaseProjectID            string
	GoogleApplicationCredentials string
	EnablePushNotification       bool

	AWSRegion          string
	AWSS3Bucket        string
	AWSS3Endpoint      string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	FileMaxUploadMB    int `validate:"min=1"`

	ResendAPIKey     string
	MailFrom         string
	AdminFrontendURL string

	LogLevel string `validate:"oneof=trace debug info warn error"`

	sources        map[string]string
	configFilePath string
	baseURLSet     bool
}

// Attribute is one configuration value and where it came from.
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// field binds an environment name to a PortalConfig member.
type field struct {
	name   string
	secret bool
	get    func(c *PortalConfig) string
	set    func(c *PortalConfig, v string) error
}

func stringField(name string, secret bool, p func(c *PortalConfig) *string) field {
	return field{
		name:   name,
		secret: secret,
		get:    func(c *PortalConfig) string { return *p(c) },
		set:    func(c *PortalConfig, v string) error { *p(c) = v; return nil },
	}
}

func intField(name string, p func(c *PortalConfig) *int) field {
	return field{
		name: name,
		get:  func(c *PortalConfig) string { return strconv.Itoa(*p(c)) },
		set: func(c *PortalConfig, v string) error {
			i, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*p(c) = i
			return nil
		},
	}
}

func boolField(name string, p func(c *PortalConfig) *bool) field {
	return field{
		name: name,
		get:  func(c *PortalConfig) string { return strconv.FormatBool(*p(c)) },
		set: func(c *PortalConfig, v string) error {
			*p(c) = ParseBool(v)
			return nil
		},
	}
}

var fields = []field{
	stringField("APP_NAME", false, func(c *PortalConfig) *string { return &c.AppName }),
	{
		name: "ENV",
		get:  func(c *PortalConfig) string { return c.Env },
		set:  func(c *PortalConfig, v string) error { c.Env = strings.ToLower(strings.TrimSpace(v)); return nil },
	},
	boolField("DEBUG", func(c *PortalConfig) *bool { return &c.Debug }),
	stringField("APP_FQDN", false, func(c *PortalConfig) *string { return &c.AppFQDN }),
	{
		name: "BASE_URL",
		get:  func(c *PortalConfig) string { return c.BaseURL },
		set: func(c *PortalConfig, v string) error {
			c.BaseURL = strings.TrimRight(v, "/")
			c.baseURLSet = true
			return nil
		},
	},
	stringField("HOST", false, func(c *PortalConfig) *string { return &c.Host }),
	intField("PORT", func(c *PortalConfig) *int { return &c.Port }),
	{
		name: "CORS_ALLOWED_ORIGINS",
		get:  func(c *PortalConfig) string { return strings.Join(c.CORSAllowedOrigins, ",") },
		set:  func(c *PortalConfig, v string) error { c.CORSAllowedOrigins = splitList(v); return nil },
	},
	stringField("DATABASE_URL", true, func(c *PortalConfig) *string { return &c.DatabaseURL }),
	stringField("REDIS_URL", true, func(c *PortalConfig) *string { return &c.RedisURL }),
	intField("REDIS_DB", func(c *PortalConfig) *int { return &c.RedisDB }),
	intField("TOKEN_BLACKLIST_REDIS_DB", func(c *PortalConfig) *int { return &c.TokenBlacklistRedisDB }),
	intField("RATE_LIMIT_PER_MINUTE", func(c *PortalConfig) *int { return &c.RateLimitPerMinute }),
	stringField("JWT_SECRET_KEY", true, func(c *PortalConfig) *string { return &c.JWTSecretKey }),
	intField("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", func(c *PortalConfig) *int { return &c.JWTAccessTokenExpireMinutes }),
	intField("REFRESH_TOKEN_EXPIRE_DAYS", func(c *PortalConfig) *int { return &c.RefreshTokenExpireDays }),
	stringField("REFRESH_TOKEN_HASH_SALT", true, func(c *PortalConfig) *string { return &c.RefreshTokenHashSalt }),
	stringField("REFRESH_TOKEN_HASH_PEPPER", true, func(c *PortalConfig) *string { return &c.RefreshTokenHashPepper }),
	intField("PASSWORD_HASH_ITERATIONS", func(c *PortalConfig) *int { return &c.PasswordHashIterations }),
	stringField("FIREBASE_PROJECT_ID", false, func(c *PortalConfig) *string { return &c.FirebaseProjectID }),
	stringField("GOOGLE_APPLICATION_CREDENTIALS", false, func(c *PortalConfig) *string { return &c.GoogleApplicationCredentials }),
	boolField("ENABLE_PUSH_NOTIFICATION", func(c *PortalConfig) *bool { return &c.EnablePushNotification }),
	stringField("AWS_REGION", false, func(c *PortalConfig) *string { return &c.AWSRegion }),
	stringField("AWS_S3_BUCKET", false, func(c *PortalConfig) *string { return &c.AWSS3Bucket }),
	stringField("AWS_S3_ENDPOINT", false, func(c *PortalConfig) *string { return &c.AWSS3Endpoint }),
	stringField("AWS_ACCESS_KEY_ID", true, func(c *PortalConfig) *string { return &c.AWSAccessKeyID }),
	stringField("AWS_SECRET_ACCESS_KEY", true, func(c *PortalConfig) *string { return &c.AWSSecretAccessKey }),
	intField("FILE_MAX_UPLOAD_MB", func(c *PortalConfig) *int { return &c.FileMaxUploadMB }),
	stringField("RESEND_API_KEY", true, func(c *PortalConfig) *string { return &c.ResendAPIKey }),
	stringField("MAIL_FROM", false, func(c *PortalConfig) *string { return &c.MailFrom }),
	stringField("ADMIN_FRONTEND_URL", false, func(c *PortalConfig) *string { return &c.AdminFrontendURL }),
	stringField("PORTAL_LOG_LEVEL", false, func(c *PortalConfig) *string { return &c.LogLevel }),
}

// Global singleton config
var (
	globalConfig *PortalConfig
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *PortalConfig {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// Set replaces the global configuration. Tests use it to inject values.
func Set(cfg *PortalConfig) {
	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
}

func newDefault() *PortalConfig {
	c := &PortalConfig{
		AppName:                     "conf-portal-api",
		Env:                         "dev",
		AppFQDN:                     "localhost",
		Host:                        "127.0.0.1",
		Port:                        8000,
		CORSAllowedOrigins:          []string{"*"},
		TokenBlacklistRedisDB:       1,
		RateLimitPerMinute:          120,
		JWTAccessTokenExpireMinutes: 60,
		RefreshTokenExpireDays:      7,
		PasswordHashIterations:      300000,
		AWSRegion:                   "ap-northeast-1",
		FileMaxUploadMB:             20,
		MailFrom:                    "no-reply@localhost",
		AdminFrontendURL:            "http://localhost:3000",
		LogLevel:                    "info",
		sources:                     make(map[string]string),
	}
	c.deriveBaseURL()
	return c
}

// New returns a configuration holding only defaults.
func New() *PortalConfig {
	c := newDefault()
	for _, f := range fields {
		c.sources[f.name] = SourceDefault
	}
	return c
}

// Load reads defaults, then the config file, then the environment.
// A .env file in the working directory is loaded into the environment first.
func Load() (*PortalConfig, error) {
	_ = godotenv.Load()

	config := New()

	configPath := os.Getenv("PORTAL_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		if err := config.applyFile(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	if !config.baseURLSet {
		config.deriveBaseURL()
	}

	return config, nil
}

// applyFile accepts a flat YAML map keyed by the environment names, in
// either case (APP_NAME or app_name).
func (c *PortalConfig) applyFile(data []byte) error {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		values[strings.ToUpper(k)] = v
	}
	for _, f := range fields {
		v, ok := values[f.name]
		if !ok {
			continue
		}
		if err := f.set(c, v); err != nil {
			return err
		}
		c.sources[f.name] = SourceFile
	}
	return nil
}

func (c *PortalConfig) applyEnv() error {
	for _, f := range fields {
		v, ok := os.LookupEnv(f.name)
		if !ok || v == "" {
			continue
		}
		if err := f.set(c, v); err != nil {
			return fmt.Errorf("invalid environment value: %w", err)
		}
		c.sources[f.name] = SourceEnvironment
	}
	return nil
}

func (c *PortalConfig) deriveBaseURL() {
	scheme := "https"
	if c.IsDev() {
		scheme = "http"
	}
	c.BaseURL = scheme + "://" + c.AppFQDN
}

// ConfigFilePath returns the path to the config file
func (c *PortalConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *PortalConfig) Source(name string) string {
	if c.sources == nil {
		return SourceDefault
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return SourceDefault
}

// IsDev is true for every environment other than stg and prod.
func (c *PortalConfig) IsDev() bool {
	return c.Env != "prod" && c.Env != "stg"
}

func (c *PortalConfig) IsProd() bool {
	return c.Env == "prod"
}

// Addr is the host:port the HTTP server binds to.
func (c *PortalConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

func (c *PortalConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWTAccessTokenExpireMinutes) * time.Minute
}

func (c *PortalConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpireDays) * 24 * time.Hour
}

// MaxUploadBytes is FILE_MAX_UPLOAD_MB in bytes.
func (c *PortalConfig) MaxUploadBytes() int64 {
	return int64(c.FileMaxUploadMB) << 20
}

// AdminAudience and AppAudience are the JWT aud values for the two surfaces.
func (c *PortalConfig) AdminAudience() string {
	return c.AppName + "-admin"
}

func (c *PortalConfig) AppAudience() string {
	return c.AppName + "-app"
}

// Validate checks the configuration against its struct tags.
func (c *PortalConfig) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
}

// Attributes returns all configuration attributes with their values and
// sources. Secret values are masked.
func (c *PortalConfig) Attributes() []Attribute {
	attrs := make([]Attribute, 0, len(fields))
	for _, f := range fields {
		value := f.get(c)
		if f.secret && value != "" {
			value = "********"
		}
		attrs = append(attrs, Attribute{Name: f.name, Value: value, Source: c.Source(f.name)})
	}
	return attrs
}

// FormatText returns a text representation of the configuration
func (c *PortalConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-34s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-34s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-34s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *PortalConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseBool accepts the usual truthy spellings.
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	}
	return false
}

func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
