package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/cabinwatch/cabinwatch/pkg/core/model"
)

const (
	DefaultBaseURL               = "https://ws.visbook.com/8/api"
	DefaultSchedule              = "1 * * * *"
	DefaultRequestTimeout        = 15 * time.Second
	DefaultMaxConcurrentRequests = 4
	DefaultSubjectPrefix         = "Hytta Update"
	DefaultSender                = "no-reply@mapper.world"

	TransportSendGrid = "sendgrid"
	TransportGmail    = "gmail"
)

// UpstreamConfig configures access to the availability API
type UpstreamConfig struct {
	BaseURL               string        `yaml:"baseURL,omitempty" validate:"omitempty,url"`
	RequestTimeout        time.Duration `yaml:"requestTimeout,omitempty" validate:"gte=0"`
	MaxConcurrentRequests int           `yaml:"maxConcurrentRequests,omitempty" validate:"gte=0"`
}

// EmailConfig configures the notification transport
type EmailConfig struct {
	Transport        string `yaml:"transport,omitempty" validate:"omitempty,oneof=sendgrid gmail"`
	From             string `yaml:"from,omitempty" validate:"omitempty,email"`
	To               string `yaml:"to" validate:"required,email"`
	SubjectPrefix    string `yaml:"subjectPrefix,omitempty"`
	PersistAfterSend bool   `yaml:"persistAfterSend,omitempty"`
	SendGridAPIKey   string `yaml:"sendGridAPIKey,omitempty" validate:"required_if=Transport sendgrid"`
}

// DatabaseConfig configures the snapshot store
type DatabaseConfig struct {
	URL string `yaml:"url,omitempty" validate:"required"`
}

// LocationConfig describes a cabin location to watch
type LocationConfig struct {
	ID        string `yaml:"id" validate:"required"`
	Name      string `yaml:"name" validate:"required"`
	StartDate string `yaml:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `yaml:"endDate" validate:"required,datetime=2006-01-02"`
	MinNights int    `yaml:"minNights,omitempty" validate:"gte=0"`
	Units     []int  `yaml:"units,omitempty"`
}

// Config represents the application configuration
type Config struct {
	Upstream  UpstreamConfig   `yaml:"upstream,omitempty"`
	Schedule  string           `yaml:"schedule,omitempty"`
	Email     EmailConfig      `yaml:"email"`
	Database  DatabaseConfig   `yaml:"database"`
	Locations []LocationConfig `yaml:"locations" validate:"required,min=1,dive"`
}

// Secrets are read from the environment and take precedence over the config file
type Secrets struct {
	SendGridAPIKey string `envconfig:"SENDGRID_API_KEY"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads the configuration for an environment.
// env="test" looks for "cabinwatch_config.test.yaml" and ".env.test" (falling back to ".env").
func LoadWithEnv(env string) (*Config, error) {
	if err := loadDotEnv(env); err != nil {
		return nil, err
	}

	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads, applies environment secrets and defaults, and validates the configuration at path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applySecrets(&cfg); err != nil {
		return nil, err
	}

	cfg.Normalize()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Normalize fills in defaults for unset optional values
func (c *Config) Normalize() {
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = DefaultBaseURL
	}
	if c.Upstream.RequestTimeout == 0 {
		c.Upstream.RequestTimeout = DefaultRequestTimeout
	}
	if c.Upstream.MaxConcurrentRequests == 0 {
		c.Upstream.MaxConcurrentRequests = DefaultMaxConcurrentRequests
	}
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}
	if c.Email.Transport == "" {
		c.Email.Transport = TransportSendGrid
	}
	if c.Email.From == "" {
		c.Email.From = DefaultSender
	}
	if c.Email.SubjectPrefix == "" {
		c.Email.SubjectPrefix = DefaultSubjectPrefix
	}
	for i := range c.Locations {
		if c.Locations[i].MinNights == 0 {
			c.Locations[i].MinNights = 1
		}
	}
}

// Validate validates the configuration struct, the cron schedule and each location window
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}

	seen := make(map[string]bool)
	for i, loc := range cfg.Locations {
		if seen[loc.ID] {
			return fmt.Errorf("duplicate location id %q in locations[%d]", loc.ID, i)
		}
		seen[loc.ID] = true

		if _, err := loc.Location(); err != nil {
			return fmt.Errorf("invalid locations[%d]: %w", i, err)
		}
	}

	return nil
}

// Location converts the config entry to the domain model
func (l LocationConfig) Location() (model.Location, error) {
	start, err := model.ParseDate(l.StartDate)
	if err != nil {
		return model.Location{}, fmt.Errorf("invalid startDate: %w", err)
	}
	end, err := model.ParseDate(l.EndDate)
	if err != nil {
		return model.Location{}, fmt.Errorf("invalid endDate: %w", err)
	}
	if !start.Before(end) {
		return model.Location{}, fmt.Errorf("endDate %s must be after startDate %s", end, start)
	}

	minNights := l.MinNights
	if minNights < 1 {
		minNights = 1
	}

	return model.Location{
		ID:        l.ID,
		Name:      l.Name,
		StartDate: start,
		EndDate:   end,
		MinNights: minNights,
		Units:     l.Units,
	}, nil
}

// DomainLocations converts all configured locations, in config order
func (c *Config) DomainLocations() ([]model.Location, error) {
	locations := make([]model.Location, 0, len(c.Locations))
	for i, lc := range c.Locations {
		loc, err := lc.Location()
		if err != nil {
			return nil, fmt.Errorf("invalid locations[%d]: %w", i, err)
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

// applySecrets overrides config values with any secrets present in the environment
func applySecrets(cfg *Config) error {
	var secrets Secrets
	if err := envconfig.Process("cabinwatch", &secrets); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if secrets.SendGridAPIKey != "" {
		cfg.Email.SendGridAPIKey = secrets.SendGridAPIKey
	}
	if secrets.DatabaseURL != "" {
		cfg.Database.URL = secrets.DatabaseURL
	}
	return nil
}

// loadDotEnv loads .env.<env> or .env into the process environment if present.
// Existing environment variables are never overwritten.
func loadDotEnv(env string) error {
	candidates := []string{".env"}
	if env != "" {
		candidates = append([]string{".env." + env}, candidates...)
	}

	for _, name := range candidates {
		if _, err := os.Stat(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to stat %s: %w", name, err)
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
		return nil
	}
	return nil
}

// findConfigFile searches for cabinwatch_config[.<env>].yaml
func findConfigFile(env string) (string, error) {
	name := "cabinwatch_config.yaml"
	if env != "" {
		name = "cabinwatch_config." + env + ".yaml"
	}
	return findFile(name)
}
