package store

import (
	"context"
	"errors"

	"dataweb/internal/dataset"
	"dataweb/internal/model"
)

var ErrRunNotFound = errors.New("store: run not found")

type Store interface {
	SaveRun(ctx context.Context, run model.Run, outcomes []model.Outcome) error
	SaveDataset(ctx context.Context, runID string, table Table) error
	LatestRunID(ctx context.Context) (string, error)
	LoadRun(ctx context.Context, runID string) (model.Run, []OutcomeRecord, error)
	LoadDataset(ctx context.Context, runID string) (Table, error)
	Close() error
}

// Table is a dataset reduced to text values. A nil value is a padded cell.
type Table struct {
	Header  []string
	Records [][]any
}

func TableFrom(ds *dataset.Dataset) Table {
	header := make([]string, len(ds.Header))
	copy(header, ds.Header)
	records := make([][]any, len(ds.Records))
	for i, record := range ds.Records {
		row := make([]any, len(record))
		for j, value := range record {
			if value != nil {
				row[j] = dataset.FormatValue(value)
			}
		}
		records[i] = row
	}
	return Table{Header: header, Records: records}
}

// StringRecords renders padded cells as empty strings.
func (t Table) StringRecords() [][]string {
	out := make([][]string, len(t.Records))
	for i, record := range t.Records {
		row := make([]string, len(record))
		for j, value := range record {
			row[j] = dataset.FormatValue(value)
		}
		out[i] = row
	}
	return out
}

// OutcomeRecord is a persisted point outcome.
type OutcomeRecord struct {
	Index    int
	Point    string
	State    model.PointState
	Kind     model.FailureKind
	Attempts int
	Tables   int
	Records  int
	Reason   string
}

func OutcomeRecordFrom(outcome model.Outcome) OutcomeRecord {
	return OutcomeRecord{
		Index:    outcome.Point.Index,
		Point:    outcome.Point.Tag.String(),
		State:    outcome.State,
		Kind:     outcome.Kind,
		Attempts: outcome.Attempts,
		Tables:   outcome.Tables,
		Records:  outcome.Records,
		Reason:   outcome.Reason(),
	}
}

type NopStore struct{}

func (s *NopStore) SaveRun(ctx context.Context, run model.Run, outcomes []model.Outcome) error {
	return nil
}

func (s *NopStore) SaveDataset(ctx context.Context, runID string, table Table) error {
	return nil
}

func (s *NopStore) LatestRunID(ctx context.Context) (string, error) {
	return "", ErrRunNotFound
}

func (s *NopStore) LoadRun(ctx context.Context, runID string) (model.Run, []OutcomeRecord, error) {
	return model.Run{}, nil, ErrRunNotFound
}

func (s *NopStore) LoadDataset(ctx context.Context, runID string) (Table, error) {
	return Table{}, ErrRunNotFound
}

func (s *NopStore) Close() error {
	return nil
}
