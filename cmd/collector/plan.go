package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"dataweb/internal/model"
	"dataweb/internal/query"
	"dataweb/internal/sweep"
)

var errNoCountriesLeft = errors.New("collector: no countries left after exclusion")

func newPlanCmd(a *app) *cobra.Command {
	var payloads bool
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the sweep points without sending any request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateSweep(); err != nil {
				return err
			}
			plan, err := a.cfg.Plan()
			if err != nil {
				return err
			}
			plan, pending, err := excludeOffline(plan, a.cfg.Sweep.ExcludeCountries)
			if err != nil {
				return err
			}
			if payloads {
				if len(pending) > 0 {
					return errors.New("collector: --payloads with --exclude-countries needs an explicit --countries list")
				}
				return printPayloads(a.out, plan)
			}
			return renderPlan(a.out, plan, a.cfg.Policy(), pending)
		},
	}
	addSweepFlags(cmd)
	cmd.Flags().BoolVar(&payloads, "payloads", false, "print the request body of every point as JSON")
	return cmd
}

// Without an explicit list the exclusion stays pending until run.
func excludeOffline(plan sweep.Plan, exclude []string) (sweep.Plan, []string, error) {
	if len(exclude) == 0 {
		return plan, nil, nil
	}
	if len(plan.Axes.Countries) > 0 {
		plan.Axes.Countries = excludeCodes(plan.Axes.Countries, exclude)
		if len(plan.Axes.Countries) == 0 {
			return plan, nil, errNoCountriesLeft
		}
		return plan, nil, nil
	}

	split := make([]model.Axis, 0, len(plan.SplitBy))
	for _, axis := range plan.SplitBy {
		if axis != model.AxisCountry {
			split = append(split, axis)
		}
	}
	plan.SplitBy = split
	return plan, exclude, nil
}

func renderPlan(w io.Writer, plan sweep.Plan, policy sweep.Policy, pending []string) error {
	points, err := plan.Points()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Tag", "Years", "Measures", "Countries"})
	for _, point := range points {
		t.AppendRow(table.Row{
			point.Index + 1,
			point.Tag.String(),
			strings.Join(point.Years, ","),
			strings.Join(point.Measures, ","),
			describeCountries(point.Countries, pending),
		})
	}
	t.Render()

	schedule := make([]string, 0, policy.MaxAttempts)
	for _, delay := range policy.Schedule() {
		schedule = append(schedule, delay.String())
	}
	_, _ = fmt.Fprintf(w, "(%d points) columns: %s; retry waits: [%s]; min interval: %s\n",
		len(points), strings.Join(plan.TagNames(), ","), strings.Join(schedule, " "), policy.MinInterval)
	if len(pending) > 0 {
		_, _ = fmt.Fprintf(w, "countries: all minus %s, resolved from the country list at run time\n", strings.Join(pending, ","))
	}
	return nil
}

func describeCountries(countries, pending []string) string {
	switch {
	case len(countries) > 0:
		return strings.Join(countries, ",")
	case len(pending) > 0:
		return "all minus " + strings.Join(pending, ",")
	default:
		return "all"
	}
}

func printPayloads(w io.Writer, plan sweep.Plan) error {
	points, err := plan.Points()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for _, point := range points {
		payload, err := query.Build(plan.Axes.At(point))
		if err != nil {
			return fmt.Errorf("collector: point %s: %w", point, err)
		}
		if err := enc.Encode(payload); err != nil {
			return err
		}
	}
	return nil
}
