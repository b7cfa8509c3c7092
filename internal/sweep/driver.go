package sweep

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"dataweb/internal/dataset"
	"dataweb/internal/model"
	"dataweb/internal/providers"
	"dataweb/internal/query"
	"dataweb/internal/report"
)

var ErrRunnerRequired = errors.New("sweep: report runner is required")

type Config struct {
	Runner    providers.ReportRunner
	Policy    Policy
	Reconcile dataset.Policy
	Logger    *zap.Logger
	// RunID overrides the generated run identifier.
	RunID     string
}

type Driver struct {
	runner    providers.ReportRunner
	policy    Policy
	reconcile dataset.Policy
	logger    *zap.Logger
	runID     string
}

func New(cfg Config) (*Driver, error) {
	if cfg.Runner == nil {
		return nil, ErrRunnerRequired
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if cfg.Reconcile == "" {
		cfg.Reconcile = dataset.Positional
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Driver{
		runner:    cfg.Runner,
		policy:    cfg.Policy.withDefaults(),
		reconcile: cfg.Reconcile,
		logger:    cfg.Logger.Named("sweep"),
		runID:     cfg.RunID,
	}, nil
}

// Run sweeps every point of plan in order. Every payload is built before the
// first request, so invalid axes fail without touching the network. An auth
// failure or cancellation halts the sweep; the partial result is returned
// together with the halting error.
func (d *Driver) Run(ctx context.Context, plan Plan) (*Result, error) {
	if err := plan.Axes.Validate(); err != nil {
		return nil, err
	}
	points, err := plan.Points()
	if err != nil {
		return nil, err
	}
	payloads := make([]query.Payload, len(points))
	for i, point := range points {
		payloads[i], err = query.Build(plan.Axes.At(point))
		if err != nil {
			return nil, fmt.Errorf("sweep: point %s: %w", point, err)
		}
	}

	runID := d.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	result := &Result{
		RunID:     runID,
		StartedAt: d.policy.Clock.Now(),
		Dataset:   dataset.New(plan.TagNames(), d.reconcile),
		Outcomes:  make([]model.Outcome, len(points)),
	}
	for i, point := range points {
		result.Outcomes[i] = model.Outcome{Point: point, State: model.StatePending}
	}

	logger := d.logger.With(zap.String("run_id", runID), zap.String("provider", d.runner.Name()))
	logger.Info("sweep started", zap.Int("points", len(points)))

	pace := newPacer(d.policy.Clock, d.policy.MinInterval)
	for i, point := range points {
		outcome := &result.Outcomes[i]
		if result.Halted {
			outcome.State = model.StateNotAttempted
			continue
		}

		pointLogger := logger.With(zap.String("point", point.String()))
		outcome.State = model.StateRequesting
		raw, attempts, err := d.request(ctx, pace, payloads[i], pointLogger)
		outcome.Attempts = attempts
		if err == nil {
			outcome.Tables, outcome.Records, err = merge(result.Dataset, point, raw, pointLogger)
		}
		if err != nil {
			d.fail(result, outcome, err, pointLogger)
			continue
		}

		outcome.State = model.StateSucceeded
		pointLogger.Info("point succeeded",
			zap.Int("attempt", attempts),
			zap.Int("tables", outcome.Tables),
			zap.Int("records", outcome.Records),
		)
	}

	result.FinishedAt = d.policy.Clock.Now()
	counts := result.Counts()
	logger.Info("sweep finished",
		zap.Int("succeeded", counts[model.StateSucceeded]),
		zap.Int("failed", result.Failed()),
		zap.Int("not_attempted", counts[model.StateNotAttempted]),
		zap.Int("records", result.Dataset.Len()),
		zap.Bool("halted", result.Halted),
	)
	return result, result.HaltErr
}

func (d *Driver) fail(result *Result, outcome *model.Outcome, err error, logger *zap.Logger) {
	kind := model.KindOf(err)
	outcome.Kind = kind
	outcome.Err = err

	fields := []zap.Field{
		zap.String("kind", string(kind)),
		zap.Int("attempt", outcome.Attempts),
		zap.Error(err),
	}
	var failure *model.Failure
	if errors.As(err, &failure) && failure.Status != 0 {
		fields = append(fields, zap.Int("status", failure.Status))
	}

	switch {
	case kind.Fatal():
		outcome.State = model.StateFatal
		result.Halted = true
		result.HaltErr = fmt.Errorf("sweep: halted at point %s: %w", outcome.Point, err)
		logger.Error("sweep halted", fields...)
	case kind.Retryable():
		outcome.State = model.StateTransientExhausted
		logger.Warn("point failed after retries", fields...)
	default:
		outcome.State = model.StateSkipped
		logger.Warn("point skipped", fields...)
	}
}

// request sends one payload, retrying transient failures. Waits honour the
// larger of the backoff schedule and any Retry-After hint.
func (d *Driver) request(ctx context.Context, pace *pacer, payload query.Payload, logger *zap.Logger) (*report.Raw, int, error) {
	var (
		attempts   int
		delay      time.Duration
		retryAfter time.Duration
	)
	backoff := clocked(d.policy.backoff(), func(next time.Duration) { delay = next })

	var raw *report.Raw
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if attempts > 0 {
			wait := max(delay, retryAfter)
			logger.Warn("retrying point",
				zap.Int("attempt", attempts+1),
				zap.Int("max_attempts", d.policy.MaxAttempts),
				zap.Duration("backoff", wait),
			)
			if err := d.policy.Clock.Sleep(ctx, wait); err != nil {
				return err
			}
		}
		if err := pace.wait(ctx); err != nil {
			return err
		}

		attempts++
		got, err := d.runner.RunReport(ctx, payload)
		if err == nil {
			raw = got
			return nil
		}
		if model.KindOf(err).Retryable() {
			retryAfter = model.RetryAfter(err)
			logger.Debug("transient failure", zap.Int("attempt", attempts), zap.Error(err))
			return retry.RetryableError(err)
		}
		return err
	})
	return raw, attempts, err
}

// merge flattens every table of raw into ds under the point's tag. Table i is
// tagged with the point's i-th measure when the counts match.
func merge(ds *dataset.Dataset, point model.SweepPoint, raw *report.Raw, logger *zap.Logger) (int, int, error) {
	tables := raw.Tables()
	records := 0
	for i, table := range tables {
		if ragged := table.Ragged(); len(ragged) > 0 {
			logger.Warn("ragged table rows", zap.Int("table", i), zap.Ints("rows", ragged))
		}
		labels, rows := table.Flatten()
		tag := point.Tag.With(model.DataTypeTag, dataType(point, tables, i))
		if err := ds.Merge(labels, rows, tag); err != nil {
			return i, records, err
		}
		records += len(rows)
	}
	return len(tables), records, nil
}

func dataType(point model.SweepPoint, tables []report.Table, i int) string {
	if len(tables) == len(point.Measures) {
		return point.Measures[i]
	}
	return "table_" + strconv.Itoa(i+1)
}
