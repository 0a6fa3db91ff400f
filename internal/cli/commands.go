package cli

import (
	"errors"
	"fmt"
	"mail-route-tracker/internal/api/dto"
	"mail-route-tracker/internal/services"
	"time"

	"github.com/spf13/cobra"
)

func newStreetsCmd(opts *options) *cobra.Command {
	var area string
	cmd := &cobra.Command{
		Use:   "streets",
		Short: "List streets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			streets, err := s.stores.Repo.ListStreets(cmd.Context())
			if err != nil {
				return err
			}
			if area != "" {
				streets = services.StreetsInArea(streets, area)
			}

			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), dto.ListStreetsResponse{Streets: dto.NewStreetResponses(streets)})
			}
			for _, st := range streets {
				renderStreet(cmd.OutOrStdout(), st)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&area, "area", "a", "", "Only streets of this area")
	return cmd
}

func newWorklistCmd(opts *options) *cobra.Command {
	var optimize bool
	cmd := &cobra.Command{
		Use:   "worklist <area>",
		Short: "Show the day's worklist for an area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := opts.referenceTime()
			if err != nil {
				return err
			}
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			req := services.WorklistRequest{Area: args[0], Date: ref, Optimize: optimize, Collation: s.cfg.Collation}
			if optimize {
				if req.WalkOrder, err = s.stores.WalkOrders.WalkOrder(cmd.Context()); err != nil {
					return err
				}
			}
			wl, err := services.BuildWorklist(cmd.Context(), req, s.stores.Repo)
			if err != nil {
				return err
			}

			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), dto.NewWorklistResponse(wl))
			}
			renderWorklist(cmd.OutOrStdout(), wl)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&optimize, "optimize", "o", false, "Order by the area's walking path")
	return cmd
}

func newGroupsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "groups <area>",
		Short: "Group an area's streets by urgency tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := opts.referenceTime()
			if err != nil {
				return err
			}
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			groups, err := services.GroupArea(cmd.Context(), s.stores.Repo, args[0], ref, s.cfg.Collation)
			if err != nil {
				return err
			}
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), dto.NewGroupsResponse(args[0], ref, groups))
			}
			renderGroups(cmd.OutOrStdout(), args[0], groups)
			return nil
		},
	}
}

func newForecastCmd(opts *options) *cobra.Command {
	var weeks int
	cmd := &cobra.Command{
		Use:   "forecast <area>",
		Short: "Project the daily workload of an area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if weeks < 1 || weeks > 8 {
				return errors.New("--weeks must be between 1 and 8")
			}
			ref, err := opts.referenceTime()
			if err != nil {
				return err
			}
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			days, err := services.ForecastArea(cmd.Context(), s.stores.Repo, args[0], weeks, ref)
			if err != nil {
				return err
			}
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), dto.NewForecastResponse(args[0], weeks, days))
			}
			renderForecast(cmd.OutOrStdout(), args[0], days)
			return nil
		},
	}
	cmd.Flags().IntVarP(&weeks, "weeks", "w", 1, "Weeks ahead (1-8)")
	return cmd
}

func newInsightsCmd(opts *options) *cobra.Command {
	var area string
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Analyze recorded delivery durations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			analysis, err := services.AnalyzeArea(cmd.Context(), s.stores.Repo, area)
			if err != nil {
				return err
			}
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), dto.NewInsightsResponse(area, analysis))
			}
			renderInsights(cmd.OutOrStdout(), analysis)
			return nil
		},
	}
	cmd.Flags().StringVarP(&area, "area", "a", "", "Only streets of this area")
	return cmd
}

func newDeliverCmd(opts *options) *cobra.Command {
	var (
		minutes int
		at      string
	)
	cmd := &cobra.Command{
		Use:   "deliver <street-id>",
		Short: "Mark a street delivered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := opts.now()
			when := now
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at %q: want RFC 3339", at)
				}
				when = t
			}
			var sample *int
			if cmd.Flags().Changed("minutes") {
				if minutes < 1 || minutes > 600 {
					return errors.New("--minutes must be between 1 and 600")
				}
				sample = &minutes
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			street, err := services.MarkDelivered(cmd.Context(), s.stores.Repo, args[0], when, sample, now)
			if err != nil {
				return err
			}
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), dto.NewStreetResponse(street))
			}
			renderStreet(cmd.OutOrStdout(), street)
			return nil
		},
	}
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "Time spent in minutes")
	cmd.Flags().StringVar(&at, "at", "", "Delivery time, RFC 3339 (default now)")
	return cmd
}

func newUndoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "undo <street-id>",
		Short: "Clear a street's last delivery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			street, err := services.UndoDelivery(cmd.Context(), s.stores.Repo, args[0])
			if err != nil {
				return err
			}
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), dto.NewStreetResponse(street))
			}
			renderStreet(cmd.OutOrStdout(), street)
			return nil
		},
	}
}

func newCycleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cycle <area>",
		Short: "Start a new delivery cycle for an area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := opts.now()
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := services.StartCycle(cmd.Context(), s.stores.Repo, args[0], now)
			if err != nil {
				return err
			}
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), dto.CycleResponse{Area: args[0], Started: now, Streets: n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cycle started for area %s: %d streets\n", args[0], n)
			return nil
		},
	}
}
