package providers

import (
	"context"

	"dataweb/internal/model"
	"dataweb/internal/query"
	"dataweb/internal/report"
)

// ReportRunner executes one report request. Implementations make a single
// attempt; retry and pacing belong to the caller.
type ReportRunner interface {
	Name() string
	RunReport(ctx context.Context, payload query.Payload) (*report.Raw, error)
}

type CountryLister interface {
	ListCountries(ctx context.Context) ([]model.Country, error)
}
