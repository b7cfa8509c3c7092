package query

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataweb/internal/model"
)

func chinaAxes() Axes {
	return Axes{
		Years:       []string{"1996", "1997"},
		Measures:    []string{"CONS_VAL_MO", "CONS_FIR_UNIT_QUANT", "CONS_DUTY_MO"},
		Countries:   []string{"5700"},
		Granularity: model.Granularity10,
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	first, err := Build(chinaAxes())
	require.NoError(t, err)
	second, err := Build(chinaAxes())
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestBuildCountryList(t *testing.T) {
	payload, err := Build(chinaAxes())
	require.NoError(t, err)

	countries := payload.SearchOptions.Countries
	assert.Equal(t, "list", countries.CountriesSelectType)
	assert.Equal(t, []string{"5700"}, countries.Countries)
	assert.Empty(t, countries.CountriesExpanded)
	assert.Equal(t, "Break Out Countries", countries.Aggregation)
}

func TestBuildAllCountriesSelector(t *testing.T) {
	axes := chinaAxes()
	axes.Countries = nil

	payload, err := Build(axes)
	require.NoError(t, err)

	countries := payload.SearchOptions.Countries
	assert.Equal(t, "all", countries.CountriesSelectType)
	assert.Equal(t, []string{}, countries.Countries)
	assert.Equal(t, []Option{{Name: "All Countries", Value: "all"}}, countries.CountriesExpanded)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"countries":[],"countriesExpanded":[{"name":"All Countries","value":"all"}],"countriesSelectType":"all"`)
}

func TestBuildDefaults(t *testing.T) {
	payload, err := Build(Axes{Years: []string{"2001"}, Measures: []string{"CONS_VAL_MO"}})
	require.NoError(t, err)

	assert.Equal(t, "Import", payload.ReportOptions.TradeType)
	assert.Equal(t, "HTS", payload.ReportOptions.ClassificationSystem)
	assert.Equal(t, "10", payload.SearchOptions.Commodities.Granularity)
	assert.Equal(t, "Break Out Commodities", payload.SearchOptions.Commodities.Aggregation)
	assert.Equal(t, "Aggregate District", payload.SearchOptions.MiscGroup.Districts.Aggregation)
	assert.Equal(t, "Monthly", payload.SearchOptions.ComponentSettings.YearsTimeline)
	assert.Equal(t, "50000", payload.SortingAndDataFormat.ReportCustomizations.TotalRecords)
	assert.Nil(t, payload.SearchOptions.MiscGroup.ImportPrograms.Aggregation)
}

func TestBuildDoesNotAliasInput(t *testing.T) {
	axes := chinaAxes()
	payload, err := Build(axes)
	require.NoError(t, err)

	axes.Years[0] = "2020"
	assert.Equal(t, []string{"1996", "1997"}, payload.SearchOptions.ComponentSettings.Years)
}

func TestValidateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Axes)
	}{
		{"no years", func(a *Axes) { a.Years = nil }},
		{"bad year", func(a *Axes) { a.Years = []string{"96"} }},
		{"no measures", func(a *Axes) { a.Measures = nil }},
		{"bad measure", func(a *Axes) { a.Measures = []string{"customs value"} }},
		{"bad country", func(a *Axes) { a.Countries = []string{"CHN"} }},
		{"bad granularity", func(a *Axes) { a.Granularity = "3" }},
		{"bad trade type", func(a *Axes) { a.TradeType = "Smuggled" }},
		{"bad classification", func(a *Axes) { a.Classification = "XYZ" }},
		{"negative ceiling", func(a *Axes) { a.TotalRecords = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			axes := chinaAxes()
			tt.mutate(&axes)
			_, err := Build(axes)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestExpandYears(t *testing.T) {
	years, err := ExpandYears([]string{"1996-1998", " 2001 ", "", "2005-2004"})
	require.NoError(t, err)
	want := []string{"1996", "1997", "1998", "2001", "2004", "2005"}
	if diff := cmp.Diff(want, years); diff != "" {
		t.Errorf("ExpandYears mismatch (-want +got):\n%s", diff)
	}

	_, err = ExpandYears([]string{"1996-97"})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestAtNarrowsToPoint(t *testing.T) {
	axes := chinaAxes()
	narrowed := axes.At(model.SweepPoint{
		Years:     []string{"1997"},
		Measures:  axes.Measures,
		Countries: axes.Countries,
	})
	assert.Equal(t, []string{"1997"}, narrowed.Years)
	assert.Equal(t, axes.Granularity, narrowed.Granularity)
}
