package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"dataweb/internal/model"
	"dataweb/internal/sweep"
)

func renderSummary(w io.Writer, result *sweep.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Point", "State", "Kind", "Attempts", "Records", "Reason"})
	for _, outcome := range result.Outcomes {
		t.AppendRow(table.Row{
			outcome.Point.Index + 1,
			outcome.Point.Tag.String(),
			string(outcome.State),
			string(outcome.Kind),
			outcome.Attempts,
			outcome.Records,
			truncate(outcome.Reason(), 80),
		})
	}
	t.Render()

	counts := result.Counts()
	_, _ = fmt.Fprintf(w, "collector run complete (run=%s points=%d success=%d failed=%d not_attempted=%d records=%d columns=%d)\n",
		result.RunID, len(result.Outcomes), counts[model.StateSucceeded], result.Failed(), counts[model.StateNotAttempted],
		result.Dataset.Len(), result.Dataset.Width(),
	)
	if result.Halted {
		_, _ = fmt.Fprintf(w, "collector run halted: %v (%d points remaining)\n", result.HaltErr, len(result.Remaining()))
	}
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}
