package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "STOCKROOM"

type Config struct {
	Env             string        `envconfig:"ENV" default:"production"`
	Port            string        `envconfig:"PORT" default:"8080"`
	DatabasePath    string        `envconfig:"DATABASE_PATH" default:"inventory.db"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	SessionDuration time.Duration `envconfig:"SESSION_DURATION" default:"24h"`
	AllowedOrigins  string        `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	ImageDir        string        `envconfig:"IMAGE_DIR" default:"images"`
	MaxUploadMB     int           `envconfig:"MAX_UPLOAD_MB" default:"10"`

	Users  UsersConfig
	OpenAI OpenAIConfig
	Google GoogleConfig
	Mail   MailConfig
}

// UsersConfig holds the static accounts seeded at startup.
type UsersConfig struct {
	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"admin123"`
	User1Username string `envconfig:"USER1_USERNAME" default:"user1"`
	User1Password string `envconfig:"USER1_PASSWORD" default:"user123"`
	User2Username string `envconfig:"USER2_USERNAME" default:"user2"`
	User2Password string `envconfig:"USER2_PASSWORD" default:"user123"`
}

// Credentials returns the seeded username/secret pairs in a stable order.
func (u UsersConfig) Credentials() [][2]string {
	return [][2]string{
		{u.AdminUsername, u.AdminPassword},
		{u.User1Username, u.User1Password},
		{u.User2Username, u.User2Password},
	}
}

type OpenAIConfig struct {
	APIKey string `envconfig:"OPENAI_API_KEY"`
	Model  string `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
}

func (o OpenAIConfig) Enabled() bool {
	return o.APIKey != ""
}

type GoogleConfig struct {
	CredentialsJSON        string `envconfig:"GOOGLE_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
}

type MailConfig struct {
	Domain      string `envconfig:"MAILGUN_DOMAIN"`
	APIKey      string `envconfig:"MAILGUN_API_KEY"`
	SenderEmail string `envconfig:"MAILGUN_SENDER_EMAIL" default:"noreply@stockroom.local"`
	SenderName  string `envconfig:"MAILGUN_SENDER_NAME" default:"Stockroom"`
	AlertEmail  string `envconfig:"ALERT_EMAIL"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("%s_MAX_UPLOAD_MB must be positive", EnvPrefix)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
