package config_test

import (
	"leadintake/internal/config"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_defaultsFromEnvironment(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, ":8080", cfg.HTTP.Addr)
	require.Equal(t, "/api/lead", cfg.HTTP.LeadPath)
	require.Equal(t, "*", cfg.HTTP.CORSOrigin)
	require.EqualValues(t, 65536, cfg.HTTP.MaxBodyBytes)
	require.True(t, cfg.Intake.ValidateEmail)
	require.Equal(t, []string{"mail"}, cfg.Dispatch.Sinks)
	require.Equal(t, 15*time.Second, cfg.Dispatch.SinkTimeout)
	require.Equal(t, "smtp.office365.com", cfg.Mail.Host)
	require.Equal(t, 587, cfg.Mail.Port)
	require.Equal(t, "https://api.notion.com", cfg.Notion.BaseURL)
	require.Equal(t, "2022-06-28", cfg.Notion.Version)
	require.Equal(t, "Name", cfg.Notion.TitleProperty)
}

func TestLoad_environmentOverrides(t *testing.T) {
	t.Setenv("LEAD_SINKS", " Mail, notion ,")
	t.Setenv("TO_EMAIL", "a@example.com, b@example.com")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("INTAKE_VALIDATE_EMAIL", "false")
	t.Setenv("DISPATCH_SINK_TIMEOUT", "0s")

	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, []string{"mail", "notion"}, cfg.Dispatch.Sinks)
	require.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Mail.To)
	require.Equal(t, 465, cfg.Mail.Port)
	require.False(t, cfg.Intake.ValidateEmail)
	require.Zero(t, cfg.Dispatch.SinkTimeout)
}

func TestLoad_yamlFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
http:
  addr: ":9090"
  corsOrigin: "https://example.com"
dispatch:
  sinks: [notion]
notion:
  secret: secret_x
  databaseId: db
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "production", cfg.Environment)
	require.Equal(t, ":9090", cfg.HTTP.Addr)
	require.Equal(t, "https://example.com", cfg.HTTP.CORSOrigin)
	require.Equal(t, []string{"notion"}, cfg.Dispatch.Sinks)
	require.Equal(t, "secret_x", cfg.Notion.Secret)
	require.Equal(t, "db", cfg.Notion.DatabaseID)
	require.Equal(t, "/api/lead", cfg.HTTP.LeadPath, "defaults still apply")
}

func TestLoad_invalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("http: [unterminated"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
}
