package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dataweb/internal/config"
	"dataweb/internal/providers"
	"dataweb/internal/providers/dataweb"
	"dataweb/internal/store"
	"dataweb/internal/store/csvfile"
	"dataweb/internal/sweep"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a sweep and write the combined dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			client, err := dataweb.NewWithConfig(a.cfg.Client(), a.logger)
			if err != nil {
				return err
			}
			return runCollector(cmd.Context(), a, client, client)
		},
	}
	addSweepFlags(cmd)
	flags := cmd.Flags()
	flags.Int("max-attempts", 0, "attempts per point for transient failures")
	flags.Duration("min-interval", 0, "minimum delay between requests")
	flags.String("csv", "", "CSV output path (empty disables)")
	flags.String("db", "", "sqlite database path (empty disables persistence)")
	return cmd
}

func runCollector(ctx context.Context, a *app, runner providers.ReportRunner, lister providers.CountryLister) error {
	cfg := a.cfg
	plan, err := cfg.Plan()
	if err != nil {
		return err
	}
	plan, err = resolveCountries(ctx, cfg, plan, lister)
	if err != nil {
		return err
	}
	reconcile, err := cfg.Reconcile()
	if err != nil {
		return err
	}

	st, err := openStore(cfg.Output.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	driver, err := sweep.New(sweep.Config{
		Runner:    runner,
		Policy:    cfg.Policy(),
		Reconcile: reconcile,
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}

	result, runErr := driver.Run(ctx, plan)
	if result == nil {
		return runErr
	}

	table := store.TableFrom(result.Dataset)
	if cfg.Output.CSV != "" {
		if err := csvfile.Write(cfg.Output.CSV, table); err != nil {
			return err
		}
		a.logger.Info("csv written", zap.String("path", cfg.Output.CSV), zap.Int("records", len(table.Records)))
	}

	saveCtx := context.WithoutCancel(ctx)
	if err := st.SaveRun(saveCtx, result.Run(), result.Outcomes); err != nil {
		return fmt.Errorf("collector: save run: %w", err)
	}
	if err := st.SaveDataset(saveCtx, result.RunID, table); err != nil {
		return fmt.Errorf("collector: save dataset: %w", err)
	}

	renderSummary(a.out, result)
	return runErr
}

func resolveCountries(ctx context.Context, cfg *config.Config, plan sweep.Plan, lister providers.CountryLister) (sweep.Plan, error) {
	exclude := cfg.Sweep.ExcludeCountries
	if len(exclude) == 0 {
		return plan, nil
	}

	var countries []string
	if len(plan.Axes.Countries) > 0 {
		countries = excludeCodes(plan.Axes.Countries, exclude)
	} else {
		if lister == nil {
			return plan, errors.New("collector: excluding countries needs the country list")
		}
		all, err := lister.ListCountries(ctx)
		if err != nil {
			return plan, fmt.Errorf("collector: list countries: %w", err)
		}
		countries = sweep.ExcludeCountries(all, exclude)
	}
	if len(countries) == 0 {
		return plan, errNoCountriesLeft
	}
	plan.Axes.Countries = countries
	return plan, nil
}

func excludeCodes(codes, exclude []string) []string {
	skip := make(map[string]struct{}, len(exclude))
	for _, code := range exclude {
		skip[code] = struct{}{}
	}
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if _, ok := skip[code]; !ok {
			out = append(out, code)
		}
	}
	return out
}
