package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration required by the API process and crmctl.
// Values come from the environment, optionally seeded from the file named by ENV_FILE.
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Voice    VoiceConfig
	Campaign CampaignConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// VoiceConfig configures the outbound calling service.
// The same credentials are used for placing calls and reading transcripts.
type VoiceConfig struct {
	BaseURL string
	APIKey  string
	OrgID   string
	Voice   string
	Timeout time.Duration

	// WebhookSecret authenticates call-completed callbacks. Empty disables the webhook.
	WebhookSecret string
}

type CampaignConfig struct {
	// ClassifyDelay is how long after initiation the transcript is classified.
	ClassifyDelay time.Duration
	// ClassifyLockTTL bounds how long one classification pass may hold its per-call guard.
	ClassifyLockTTL time.Duration
	// DeployConcurrency caps how many contacts of one deployment are dialed at once.
	DeployConcurrency int
	// ScriptsFile optionally overrides the embedded call-script templates.
	ScriptsFile string
}

const (
	defaultVoiceBaseURL      = "https://api.bland.ai"
	defaultVoiceName         = "maya"
	defaultVoiceTimeout      = 15 * time.Second
	defaultClassifyDelay     = 125 * time.Second
	defaultClassifyLockTTL   = 2 * time.Minute
	defaultDeployConcurrency = 4
)

func Load() (Config, error) {
	if f := strings.TrimSpace(os.Getenv("ENV_FILE")); f != "" {
		// Existing environment wins over the file.
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("ENV_FILE %q: %w", f, err)
		}
	}

	c := Config{}
	var parseErrs []error
	collect := func(err error) {
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
	}
	var err error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	c.App.Port, err = mustInt("APP_PORT")
	collect(err)

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port, err = mustInt("DB_PORT")
	collect(err)
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Port, err = mustInt("REDIS_PORT")
	collect(err)
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.AccessTokenTTL, err = optDuration("JWT_ACCESS_TTL")
	collect(err)
	c.Auth.RefreshTokenTTL, err = optDuration("JWT_REFRESH_TTL")
	collect(err)

	c.Voice.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("VOICE_BASE_URL")), "/")
	c.Voice.APIKey = os.Getenv("VOICE_API_KEY")
	c.Voice.OrgID = strings.TrimSpace(os.Getenv("VOICE_ORG_ID"))
	c.Voice.Voice = strings.TrimSpace(os.Getenv("VOICE_NAME"))
	c.Voice.Timeout, err = optDuration("VOICE_TIMEOUT")
	collect(err)
	c.Voice.WebhookSecret = os.Getenv("VOICE_WEBHOOK_SECRET")

	c.Campaign.ClassifyDelay, err = optDuration("CLASSIFY_DELAY")
	collect(err)
	c.Campaign.ClassifyLockTTL, err = optDuration("CLASSIFY_LOCK_TTL")
	collect(err)
	c.Campaign.DeployConcurrency, err = optInt("DEPLOY_CONCURRENCY")
	collect(err)
	c.Campaign.ScriptsFile = strings.TrimSpace(os.Getenv("SCRIPTS_FILE"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills env-dependent defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if c.Voice.BaseURL == "" {
		c.Voice.BaseURL = defaultVoiceBaseURL
	}
	if !strings.HasPrefix(c.Voice.BaseURL, "http://") && !strings.HasPrefix(c.Voice.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("VOICE_BASE_URL must be an http(s) URL, got %q", c.Voice.BaseURL))
	}
	if c.Voice.APIKey == "" {
		errs = append(errs, errors.New("VOICE_API_KEY is required"))
	}
	if c.Voice.Voice == "" {
		c.Voice.Voice = defaultVoiceName
	}
	if c.Voice.Timeout <= 0 {
		c.Voice.Timeout = defaultVoiceTimeout
	}
	if c.IsProduction() && c.Voice.WebhookSecret == "" {
		errs = append(errs, errors.New("VOICE_WEBHOOK_SECRET is required in production"))
	}

	if c.Campaign.ClassifyDelay <= 0 {
		c.Campaign.ClassifyDelay = defaultClassifyDelay
	}
	if c.Campaign.ClassifyLockTTL <= 0 {
		c.Campaign.ClassifyLockTTL = defaultClassifyLockTTL
	}
	if c.Campaign.DeployConcurrency == 0 {
		c.Campaign.DeployConcurrency = defaultDeployConcurrency
	}
	if c.Campaign.DeployConcurrency < 0 {
		errs = append(errs, fmt.Errorf("DEPLOY_CONCURRENCY must be positive, got %d", c.Campaign.DeployConcurrency))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// optDuration returns 0 when unset; Validate applies defaults.
func optDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, v)
	}
	return d, nil
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
