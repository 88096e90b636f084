package main

import (
	"context"
	"errors"
	"fmt"
	"leadintake/internal/config"
	"leadintake/pkg/domain"
	"strings"

	"github.com/go-faster/jx"
	"github.com/spf13/cobra"
)

var errDeliveryFailed = errors.New("lead delivery failed")

// sendCommand constructs the 'send' subcommand that pushes one submission
// through the configured sinks and prints the outcome as JSON.
func sendCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "send",
		Short:        "Sends one lead to the configured sinks",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			company, _ := cmd.Flags().GetString("company")
			email, _ := cmd.Flags().GetString("email")
			profile, _ := cmd.Flags().GetString("profile")
			pairs, _ := cmd.Flags().GetStringArray("answer")

			answers, err := parseAnswers(pairs)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			in, err := buildIntake(ctx, cfg, nil)
			if err != nil {
				return err
			}

			out, err := in.Submit(ctx, domain.Submission{
				Name:    name,
				Company: company,
				Email:   email,
				Profile: profile,
				Answers: answers,
			})
			if err != nil {
				return fmt.Errorf("could not submit lead: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(encodeOutcome(out))) //nolint: errcheck
			if !out.OK() {
				return errDeliveryFailed
			}

			return nil
		},
	}

	cmd.Flags().String("name", "", "Submitter's name")
	cmd.Flags().String("company", "", "Submitter's company")
	cmd.Flags().String("email", "", "Submitter's business email")
	cmd.Flags().String("profile", "", "Optional profile")
	cmd.Flags().StringArray("answer", nil, "Survey answer as key=value, repeatable")

	return cmd
}

// parseAnswers turns key=value pairs into ordered answers.
func parseAnswers(pairs []string) (domain.Answers, error) {
	var answers domain.Answers
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid answer %q, expected key=value", p)
		}
		answers.Set(k, v)
	}

	return answers, nil
}

func encodeOutcome(out domain.Outcome) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("ok")
	e.Bool(out.OK())
	e.FieldStart("status")
	e.Str(out.Status().String())
	e.FieldStart("results")
	e.ArrStart()
	for _, r := range out.Results {
		e.ObjStart()
		e.FieldStart("sink")
		e.Str(r.Sink)
		e.FieldStart("ok")
		e.Bool(r.OK())
		if r.OK() {
			e.FieldStart("id")
			e.Str(r.Reference)
		} else {
			e.FieldStart("error")
			e.Str(r.Reason())
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()

	return e.Bytes()
}
