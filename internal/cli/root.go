// Package cli implements the routectl commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mail-route-tracker/internal/app"
	"mail-route-tracker/internal/config"
	"mail-route-tracker/internal/platform/logger"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type options struct {
	format string
	date   string
	now    func() time.Time
}

// NewRootCmd builds the command tree. Commands open the store selected by the
// environment, the same way the server does.
func NewRootCmd() *cobra.Command {
	return newRootCmd(time.Now)
}

func newRootCmd(now func() time.Time) *cobra.Command {
	opts := &options{now: now}

	root := &cobra.Command{
		Use:           "routectl",
		Short:         "Mail route urgency and scheduling",
		Long:          "Inspect worklists, forecasts and delivery history, and record deliveries from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "text" && opts.format != "json" {
				return fmt.Errorf("unknown format %q: use text or json", opts.format)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	root.PersistentFlags().StringVar(&opts.date, "date", "", "Reference day YYYY-MM-DD (default today)")

	root.AddCommand(
		newStreetsCmd(opts),
		newWorklistCmd(opts),
		newGroupsCmd(opts),
		newForecastCmd(opts),
		newInsightsCmd(opts),
		newDeliverCmd(opts),
		newUndoCmd(opts),
		newCycleCmd(opts),
	)
	return root
}

// Execute runs routectl with the process arguments.
func Execute() error {
	config.LoadEnv()
	return NewRootCmd().Execute()
}

type session struct {
	cfg    config.Config
	stores *app.Stores
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// keep stdout clean for the command output
	if err := logger.Init(logger.Config{Level: "warn", File: cfg.LogFile}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stores, err := app.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, stores: stores}, nil
}

func (s *session) Close() { _ = s.stores.Close() }

// referenceTime is --date at the current time of day, or now.
func (o *options) referenceTime() (time.Time, error) {
	now := o.now()
	raw := strings.TrimSpace(o.date)
	if raw == "" {
		return now, nil
	}
	d, err := time.ParseInLocation("2006-01-02", raw, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", raw)
	}
	h, m, sec := now.Clock()
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, sec, now.Nanosecond(), now.Location()), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
