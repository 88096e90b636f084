package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
// It contains settings for the environment, HTTP server, intake policies,
// the notification sinks and graceful shutdown behavior.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`
	// LogLevel is the minimum level of emitted log entries (debug, info, warn, error)
	LogLevel string `env:"LOG_LEVEL" env-default:"info" yaml:"logLevel"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"30s" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MaxBodyBytes limits the size of a submitted request body
		MaxBodyBytes int64 `env:"HTTP_MAX_BODY_BYTES" env-default:"65536" yaml:"maxBodyBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
		// LeadPath defines the URL path of the lead intake endpoint
		LeadPath string `env:"HTTP_LEAD_PATH" env-default:"/api/lead" yaml:"leadPath"`
		// PprofEnabled exposes net/http/pprof under /debug/pprof/
		PprofEnabled bool `env:"HTTP_PPROF_ENABLED" env-default:"false" yaml:"pprofEnabled"`
		// CORSOrigin is sent as Access-Control-Allow-Origin
		CORSOrigin string `env:"CORS_ORIGIN" env-default:"*" yaml:"corsOrigin"`
	} `yaml:"http"`

	// Intake contains the validation policies applied to submissions
	Intake struct {
		// ValidateEmail enables the email format check
		ValidateEmail bool `env:"INTAKE_VALIDATE_EMAIL" env-default:"true" yaml:"validateEmail"`
	} `yaml:"intake"`

	// Dispatch contains the sink selection and fan-out settings
	Dispatch struct {
		// Sinks is the ordered, comma separated list of enabled sinks (mail, notion)
		Sinks []string `env:"LEAD_SINKS" env-default:"mail" env-separator:"," yaml:"sinks"`
		// SinkTimeout bounds every single sink call, 0 disables the bound
		SinkTimeout time.Duration `env:"DISPATCH_SINK_TIMEOUT" env-default:"15s" yaml:"sinkTimeout"`
	} `yaml:"dispatch"`

	// Mail contains the SMTP relay and message settings
	Mail struct {
		// Host is the SMTP relay hostname
		Host string `env:"SMTP_HOST" env-default:"smtp.office365.com" yaml:"host"`
		// Port is the SMTP relay port, 465 uses implicit TLS
		Port int `env:"SMTP_PORT" env-default:"587" yaml:"port"`
		// Username for SMTP authentication
		Username string `env:"SMTP_USER" yaml:"username"`
		// Password for SMTP authentication
		Password string `env:"SMTP_PASS" yaml:"password"`
		// From is the sender address, defaults to Username
		From string `env:"FROM_EMAIL" yaml:"from"`
		// To is the comma separated list of recipients
		To []string `env:"TO_EMAIL" env-separator:"," yaml:"to"`
		// Bcc is an optional comma separated list of blind copy recipients
		Bcc []string `env:"CRM_BCC" env-separator:"," yaml:"bcc"`
		// Subject of every lead email
		Subject string `env:"MAIL_SUBJECT" env-default:"New report request (landing page)" yaml:"subject"`
		// Format of the email: text, or csv for an additional CSV attachment
		Format string `env:"MAIL_FORMAT" env-default:"text" yaml:"format"`
	} `yaml:"mail"`

	// Notion contains the workspace database settings
	Notion struct {
		// Secret is the integration token
		Secret string `env:"NOTION_SECRET" yaml:"secret"`
		// DatabaseID identifies the target database
		DatabaseID string `env:"NOTION_DATABASE_ID" yaml:"databaseId"`
		// BaseURL of the Notion API
		BaseURL string `env:"NOTION_BASE_URL" env-default:"https://api.notion.com" yaml:"baseUrl"`
		// Version is sent as Notion-Version header
		Version string `env:"NOTION_VERSION" env-default:"2022-06-28" yaml:"version"`
		// Timeout of a single API call
		Timeout time.Duration `env:"NOTION_TIMEOUT" env-default:"10s" yaml:"timeout"`
		// TitleProperty receives the submitter's name
		TitleProperty string `env:"NOTION_TITLE_PROPERTY" env-default:"Name" yaml:"titleProperty"`
		// EmailProperty optionally receives the submitter's email
		EmailProperty string `env:"NOTION_EMAIL_PROPERTY" yaml:"emailProperty"`
		// CompanyProperty optionally receives the company
		CompanyProperty string `env:"NOTION_COMPANY_PROPERTY" yaml:"companyProperty"`
		// ProfileProperty optionally receives the profile
		ProfileProperty string `env:"NOTION_PROFILE_PROPERTY" yaml:"profileProperty"`
	} `yaml:"notion"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load receives the path for yaml config file and returns a filled Config struct.
// Environment variables always take precedence. A missing file is not an error:
// the configuration is then read from the environment only.
func Load(configPath string) (*Config, error) {
	var cfg Config

	_, statErr := os.Stat(configPath)
	switch {
	case configPath != "" && statErr == nil:
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	case configPath == "" || errors.Is(statErr, fs.ErrNotExist):
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("could not read config from environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("could not stat config file: %w", statErr)
	}

	cfg.normalize()

	return &cfg, nil
}

// normalize trims list entries and drops empty ones so "mail, notion," and
// "mail,notion" are equivalent.
func (c *Config) normalize() {
	c.Dispatch.Sinks = compact(c.Dispatch.Sinks, true)
	c.Mail.To = compact(c.Mail.To, false)
	c.Mail.Bcc = compact(c.Mail.Bcc, false)
}

func compact(values []string, lower bool) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v != "" {
			out = append(out, v)
		}
	}

	return out
}
