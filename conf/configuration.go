package conf

import (
	"os"
	"time"

	"github.com/imdario/mergo"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const envPrefix = "inviter"

// DBConfiguration holds the record store settings.
type DBConfiguration struct {
	Driver       string `json:"driver" default:"tigris"`
	DSN          string `json:"dsn"`
	Debug        bool   `json:"debug"`
	Namespace    string `json:"namespace"`
	AutoMigrate  bool   `json:"automigrate" split_words:"true"`
	URL          string `json:"url"`
	Project      string `json:"project" default:"inviter"`
	Branch       string `json:"branch"`
	Token        string `json:"token"`
	ClientId     string `json:"client_id" split_words:"true"`
	ClientSecret string `json:"client_secret" split_words:"true"`
}

// APIConfiguration holds the HTTP listener settings.
type APIConfiguration struct {
	Host              string  `json:"host"`
	Port              int     `json:"port" envconfig:"PORT" default:"8081"`
	Endpoint          string  `json:"endpoint"`
	VerifyRateLimit   float64 `json:"verify_rate_limit" split_words:"true" default:"30"`
	ReminderCacheSize int     `json:"reminder_cache_size" split_words:"true" default:"1024"`
}

// EventsConfiguration holds the pub/sub sink settings.
type EventsConfiguration struct {
	RedisURL      string `json:"redis_url" split_words:"true"`
	ChannelPrefix string `json:"channel_prefix" split_words:"true" default:"invitations"`
}

// TracingConfig configures the datadog opentracing tracer.
type TracingConfig struct {
	Enabled     bool              `json:"enabled"`
	Host        string            `json:"host"`
	Port        string            `json:"port"`
	ServiceName string            `json:"service_name" split_words:"true" default:"inviter"`
	Tags        map[string]string `json:"tags"`
}

// GlobalConfiguration holds all the process-wide configuration.
type GlobalConfiguration struct {
	API     APIConfiguration
	DB      DBConfiguration
	Events  EventsConfiguration
	Logging LoggingConfig `envconfig:"LOG"`
	Tracing TracingConfig
}

// JWTConfiguration holds the operator token settings.
type JWTConfiguration struct {
	Secret string `json:"secret"`
	Aud    string `json:"aud"`
}

// SMTPConfiguration holds the SMTP settings of the template mailer.
type SMTPConfiguration struct {
	MaxFrequency time.Duration `json:"max_frequency" split_words:"true"`
	Host         string        `json:"host"`
	Port         int           `json:"port,omitempty" default:"587"`
	User         string        `json:"user"`
	Pass         string        `json:"pass,omitempty"`
	AdminEmail   string        `json:"admin_email" split_words:"true"`
}

type CustomerIOConfiguration struct {
	ApiKey                   string `json:"api_key" split_words:"true"`
	UserInvitationTemplateId string `json:"user_invitation_template_id" split_words:"true"`
}

type MailerConfiguration struct {
	Type       string                  `json:"type"`
	Subject    string                  `json:"subject"`
	Template   string                  `json:"template"`
	CustomerIO CustomerIOConfiguration `json:"customerio"`
}

// InvitationConfig controls how invitations are issued.
type InvitationConfig struct {
	CodePrefix string        `json:"code_prefix" split_words:"true"`
	DefaultTTL time.Duration `json:"default_ttl" split_words:"true"`
	HideCode   bool          `json:"hide_code" split_words:"true"`
	URL        string        `json:"url"`
}

// Configuration holds the settings of one invitation instance.
type Configuration struct {
	SiteURL    string              `json:"site_url" split_words:"true" required:"true"`
	JWT        JWTConfiguration    `json:"jwt"`
	SMTP       SMTPConfiguration   `json:"smtp"`
	Mailer     MailerConfiguration `json:"mailer"`
	Invitation InvitationConfig    `json:"invitation"`
}

func defaultInvitationConfig() InvitationConfig {
	return InvitationConfig{
		DefaultTTL: 7 * 24 * time.Hour,
	}
}

func loadEnvironment(filename string) error {
	var err error
	if filename != "" {
		err = godotenv.Load(filename)
	} else {
		err = godotenv.Load()
		// handle if .env file does not exist, this is OK
		if os.IsNotExist(err) {
			return nil
		}
	}
	return err
}

// LoadGlobal loads configuration from file and environment variables.
func LoadGlobal(filename string) (*GlobalConfiguration, error) {
	if err := loadEnvironment(filename); err != nil {
		return nil, err
	}

	config := new(GlobalConfiguration)
	if err := envconfig.Process(envPrefix, config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ConfigureZeroLogging(&config.Logging)
	ConfigureTracing(&config.Tracing)
	return config, nil
}

// LoadConfig loads per-instance configuration.
func LoadConfig(filename string) (*Configuration, error) {
	if err := loadEnvironment(filename); err != nil {
		return nil, err
	}

	config := new(Configuration)
	if err := envconfig.Process(envPrefix, config); err != nil {
		return nil, err
	}
	if err := config.ApplyDefaults(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the store settings.
func (c *GlobalConfiguration) Validate() error {
	switch c.DB.Driver {
	case "tigris":
		if c.DB.URL == "" {
			return errors.New("tigris url is required")
		}
	case "postgres", "mysql", "sqlite":
		if c.DB.DSN == "" {
			return errors.Errorf("dsn is required for the %s driver", c.DB.Driver)
		}
	default:
		return errors.Errorf("unsupported database driver: %s", c.DB.Driver)
	}
	return nil
}

// ApplyDefaults fills unset invitation settings.
func (c *Configuration) ApplyDefaults() error {
	if err := mergo.Merge(&c.Invitation, defaultInvitationConfig()); err != nil {
		return errors.Wrap(err, "applying invitation defaults")
	}
	if c.Invitation.URL == "" {
		c.Invitation.URL = c.SiteURL
	}
	if c.Mailer.Subject == "" {
		c.Mailer.Subject = "You have been invited"
	}
	return nil
}
