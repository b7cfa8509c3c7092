package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dataweb/internal/config"
	"dataweb/internal/logging"
	"dataweb/internal/model"
	"dataweb/internal/store"
	"dataweb/internal/store/csvfile"
	"dataweb/internal/store/sqlite"
)

type exportFile struct {
	GeneratedAt string     `json:"generated_at"`
	Run         runBlock   `json:"run"`
	Columns     []string   `json:"columns"`
	Rows        [][]any    `json:"rows"`
	Points      []pointRow `json:"points"`
}

type runBlock struct {
	ID         string `json:"id"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	Halted     bool   `json:"halted"`
	Error      string `json:"error,omitempty"`
}

type pointRow struct {
	Point    string `json:"point"`
	State    string `json:"state"`
	Kind     string `json:"kind,omitempty"`
	Attempts int    `json:"attempts"`
	Records  int    `json:"records"`
	Reason   string `json:"reason,omitempty"`
}

type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
	out     io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "publisher:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, logger: zap.NewNop()}
	root := &cobra.Command{
		Use:           "publisher",
		Short:         "Re-emit stored sweep runs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./dataweb.yaml when present)")
	root.PersistentFlags().String("db", "", "sqlite database path")
	root.PersistentFlags().String("log-level", "", "log level")
	root.AddCommand(newExportCmd(a), newShowCmd(a))
	return root
}

func newExportCmd(a *app) *cobra.Command {
	var (
		runID  string
		format string
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a stored run as CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q (csv, json)", format)
			}

			st, err := openStore(a.cfg.Output.DB)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			runID, err = resolveRunID(ctx, st, runID)
			if err != nil {
				return err
			}
			run, outcomes, err := st.LoadRun(ctx, runID)
			if err != nil {
				return err
			}
			data, err := st.LoadDataset(ctx, runID)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			path := filepath.Join(outDir, runID+"."+format)
			switch format {
			case "csv":
				err = csvfile.Write(path, data)
			default:
				err = writeJSON(path, buildExport(run, outcomes, data, time.Now()))
			}
			if err != nil {
				return err
			}

			a.logger.Info("run exported", zap.String("run_id", runID), zap.String("path", path))
			_, _ = fmt.Fprintf(a.out, "publisher export complete (run=%s records=%d out=%s)\n", runID, len(data.Records), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "latest", "run id to export")
	cmd.Flags().StringVar(&format, "format", "csv", "output format (csv, json)")
	cmd.Flags().StringVar(&outDir, "out", "site/data", "output directory")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the point outcomes of a stored run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(a.cfg.Output.DB)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			runID, err = resolveRunID(ctx, st, runID)
			if err != nil {
				return err
			}
			run, outcomes, err := st.LoadRun(ctx, runID)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(a.out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"#", "Point", "State", "Kind", "Attempts", "Records", "Reason"})
			for _, outcome := range outcomes {
				t.AppendRow(table.Row{outcome.Index + 1, outcome.Point, string(outcome.State), string(outcome.Kind), outcome.Attempts, outcome.Records, outcome.Reason})
			}
			t.Render()
			_, _ = fmt.Fprintf(a.out, "run %s started %s halted=%t\n", run.ID, run.StartedAt.Format(time.RFC3339), run.Halted)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "latest", "run id to show")
	return cmd
}

func openStore(path string) (*sqlite.Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite database path is required (--db or output.db)")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return sqlite.New(path)
}

func resolveRunID(ctx context.Context, st store.Store, runID string) (string, error) {
	if runID != "" && runID != "latest" {
		return runID, nil
	}
	return st.LatestRunID(ctx)
}

func buildExport(run model.Run, outcomes []store.OutcomeRecord, data store.Table, now time.Time) exportFile {
	export := exportFile{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Run: runBlock{
			ID:        run.ID,
			StartedAt: run.StartedAt.UTC().Format(time.RFC3339),
			Halted:    run.Halted,
			Error:     run.Error,
		},
		Columns: data.Header,
		Rows:    data.Records,
		Points:  make([]pointRow, 0, len(outcomes)),
	}
	if !run.FinishedAt.IsZero() {
		export.Run.FinishedAt = run.FinishedAt.UTC().Format(time.RFC3339)
	}
	for _, outcome := range outcomes {
		export.Points = append(export.Points, pointRow{
			Point:    outcome.Point,
			State:    string(outcome.State),
			Kind:     string(outcome.Kind),
			Attempts: outcome.Attempts,
			Records:  outcome.Records,
			Reason:   outcome.Reason,
		})
	}
	return export
}

func writeJSON(path string, value any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
