package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dataweb/internal/config"
	"dataweb/internal/logging"
	"dataweb/internal/store"
	"dataweb/internal/store/sqlite"
)

type app struct {
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *zap.Logger
	out     io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "collector:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "collector",
		Short:         "Sweep USITC DataWeb reports into one flat dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			level := cfg.Log.Level
			if a.verbose {
				level = "debug"
			}
			logger, err := logging.New(level, cfg.Log.Format)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			a.logger.Debug("config loaded", zap.Stringer("config", cfg))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./dataweb.yaml when present)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	flags.String("token", "", "DataWeb API token (default: $TRADE_API_KEY)")
	flags.String("base-url", "", "DataWeb base URL")
	flags.Duration("timeout", 0, "HTTP timeout per request")
	flags.Bool("insecure", false, "skip TLS certificate verification")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (console, json)")

	root.AddCommand(newRunCmd(a), newPlanCmd(a), newCountriesCmd(a))
	return root
}

func addSweepFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSlice("years", nil, "years or ranges, e.g. 1996-2005")
	flags.StringSlice("measures", nil, "data measures, e.g. CONS_VAL_MO")
	flags.StringSlice("countries", nil, "country codes (empty = all countries)")
	flags.StringSlice("exclude-countries", nil, "sweep every listed country except these codes")
	flags.String("granularity", "", "HTS digit level (2, 4, 6, 8, 10)")
	flags.String("trade-type", "", "Import, Export or GenImp")
	flags.String("classification", "", "HTS, SITC or NAICS")
	flags.StringSlice("split-by", nil, "axes sent as one request per value (year, measure, country)")
	flags.Int("total-records", 0, "row ceiling per report")
	flags.String("reconcile", "", "column reconciliation (positional, label)")
}

func openStore(path string) (store.Store, error) {
	if path == "" {
		return &store.NopStore{}, nil
	}
	return sqlite.New(path)
}
