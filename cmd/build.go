package main

import (
	"context"
	"fmt"
	"leadintake/internal/config"
	"leadintake/internal/dispatch"
	"leadintake/internal/intake"
	"leadintake/pkg/logger"
	"leadintake/pkg/render"
	"leadintake/pkg/sink"
	"leadintake/pkg/sink/mailsink"
	"leadintake/pkg/sink/notion"
	"net/http"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// buildSinks creates the sinks named in the configuration, in order. Unknown
// names are logged and skipped; missing secrets only surface on delivery.
func buildSinks(ctx context.Context, cfg *config.Config) ([]sink.Sink, error) {
	// shared by all notion requests; safe for concurrent use
	httpClient := &http.Client{Timeout: cfg.Notion.Timeout}

	sinks := make([]sink.Sink, 0, len(cfg.Dispatch.Sinks))
	seen := make(map[string]bool, len(cfg.Dispatch.Sinks))
	for _, name := range cfg.Dispatch.Sinks {
		if seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case sink.Mail:
			s, err := mailsink.New(mailsink.Options{
				Host:     cfg.Mail.Host,
				Port:     cfg.Mail.Port,
				Username: cfg.Mail.Username,
				Password: cfg.Mail.Password,
				From:     cfg.Mail.From,
				To:       cfg.Mail.To,
				Bcc:      cfg.Mail.Bcc,
				Subject:  cfg.Mail.Subject,
				Format:   render.Format(cfg.Mail.Format),
			})
			if err != nil {
				return nil, fmt.Errorf("could not create mail sink: %w", err)
			}
			sinks = append(sinks, s)
		case sink.Notion:
			sinks = append(sinks, notion.New(httpClient, notion.Options{
				Secret:          cfg.Notion.Secret,
				DatabaseID:      cfg.Notion.DatabaseID,
				BaseURL:         cfg.Notion.BaseURL,
				Version:         cfg.Notion.Version,
				TitleProperty:   cfg.Notion.TitleProperty,
				EmailProperty:   cfg.Notion.EmailProperty,
				CompanyProperty: cfg.Notion.CompanyProperty,
				ProfileProperty: cfg.Notion.ProfileProperty,
			}))
		default:
			logger.Warn(ctx, "unknown sink ignored", zap.String("sink", name))
		}
	}

	return sinks, nil
}

// buildIntake wires sinks, dispatcher and intake service from the configuration.
// A nil meter provider uses the otel global one.
func buildIntake(ctx context.Context, cfg *config.Config, mp metric.MeterProvider) (intake.Intake, error) {
	sinks, err := buildSinks(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if len(sinks) == 0 {
		logger.Warn(ctx, "no sinks configured, every submission will fail")
	}

	d, err := dispatch.New(dispatch.Deps{
		Sinks:         sinks,
		MeterProvider: mp,
	}, dispatch.NewOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("could not create dispatcher: %w", err)
	}

	i, err := intake.New(intake.Deps{Dispatcher: d}, intake.NewOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("could not create intake: %w", err)
	}

	return i, nil
}
