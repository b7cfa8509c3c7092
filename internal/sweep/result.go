package sweep

import (
	"time"

	"dataweb/internal/dataset"
	"dataweb/internal/model"
)

// Result is the outcome of one sweep. It is returned even when the sweep
// halts, carrying whatever was merged before the halt.
type Result struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Dataset    *dataset.Dataset
	Outcomes   []model.Outcome
	Halted     bool
	HaltErr    error
}

func (r *Result) Completed() []model.Outcome {
	return r.filter(func(o model.Outcome) bool { return o.State == model.StateSucceeded })
}

// Remaining lists the points the halt prevented from finishing: the point
// that failed fatally and every point after it.
func (r *Result) Remaining() []model.Outcome {
	return r.filter(func(o model.Outcome) bool {
		return o.State == model.StateFatal || o.State == model.StateNotAttempted
	})
}

func (r *Result) Counts() map[model.PointState]int {
	counts := make(map[model.PointState]int)
	for _, outcome := range r.Outcomes {
		counts[outcome.State]++
	}
	return counts
}

func (r *Result) Failed() int {
	failed := 0
	for _, outcome := range r.Outcomes {
		if outcome.State.Failed() {
			failed++
		}
	}
	return failed
}

func (r *Result) Run() model.Run {
	run := model.Run{
		ID:         r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Halted:     r.Halted,
	}
	if r.HaltErr != nil {
		run.Error = r.HaltErr.Error()
	}
	return run
}

func (r *Result) filter(keep func(model.Outcome) bool) []model.Outcome {
	out := make([]model.Outcome, 0, len(r.Outcomes))
	for _, outcome := range r.Outcomes {
		if keep(outcome) {
			out = append(out, outcome)
		}
	}
	return out
}
