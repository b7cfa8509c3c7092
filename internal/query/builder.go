package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"dataweb/internal/model"
)

const (
	DefaultTotalRecords = 50000

	aggregateDistrict   = "Aggregate District"
	aggregateCSC        = "Aggregate CSC"
	aggregateRPCode     = "Aggregate RPCODE"
	breakOutCountries   = "Break Out Countries"
	breakOutCommodities = "Break Out Commodities"
	selectAll           = "all"
	selectList          = "list"
	timelineMonthly     = "Monthly"
	timeframeFullYears  = "fullYears"
	scaleNone           = "1"
)

var (
	measurePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	countryPattern = regexp.MustCompile(`^[0-9]+$`)
	yearPattern    = regexp.MustCompile(`^[0-9]{4}$`)
)

// Axes holds the values of every query dimension. An empty Countries list
// selects all countries.
type Axes struct {
	Years          []string
	Measures       []string
	Countries      []string
	Granularity    model.Granularity
	TradeType      model.TradeType
	Classification model.Classification
	TotalRecords   int
}

func (a Axes) withDefaults() Axes {
	if strings.TrimSpace(string(a.TradeType)) == "" {
		a.TradeType = model.TradeImport
	}
	if strings.TrimSpace(string(a.Classification)) == "" {
		a.Classification = model.ClassificationHTS
	}
	if strings.TrimSpace(string(a.Granularity)) == "" {
		a.Granularity = model.Granularity10
	}
	if a.TotalRecords == 0 {
		a.TotalRecords = DefaultTotalRecords
	}
	return a
}

func (a Axes) Validate() error {
	a = a.withDefaults()
	if len(a.Years) == 0 {
		return fmt.Errorf("%w: query: at least one year is required", model.ErrValidation)
	}
	for _, year := range a.Years {
		if !yearPattern.MatchString(year) {
			return fmt.Errorf("%w: query: invalid year %q", model.ErrValidation, year)
		}
	}
	if len(a.Measures) == 0 {
		return fmt.Errorf("%w: query: at least one data measure is required", model.ErrValidation)
	}
	for _, measure := range a.Measures {
		if !measurePattern.MatchString(measure) {
			return fmt.Errorf("%w: query: invalid data measure %q", model.ErrValidation, measure)
		}
	}
	for _, country := range a.Countries {
		if !countryPattern.MatchString(country) {
			return fmt.Errorf("%w: query: invalid country code %q", model.ErrValidation, country)
		}
	}
	if !a.Granularity.Valid() {
		return fmt.Errorf("%w: query: invalid granularity %q (want 2, 4, 6, 8 or 10)", model.ErrValidation, a.Granularity)
	}
	if !a.TradeType.Valid() {
		return fmt.Errorf("%w: query: invalid trade type %q", model.ErrValidation, a.TradeType)
	}
	if !a.Classification.Valid() {
		return fmt.Errorf("%w: query: invalid classification %q", model.ErrValidation, a.Classification)
	}
	if a.TotalRecords < 0 {
		return fmt.Errorf("%w: query: total records must not be negative", model.ErrValidation)
	}
	return nil
}

// At narrows the axes to the values of one sweep point.
func (a Axes) At(point model.SweepPoint) Axes {
	narrowed := a
	narrowed.Years = point.Years
	narrowed.Measures = point.Measures
	narrowed.Countries = point.Countries
	return narrowed
}

func Build(axes Axes) (Payload, error) {
	if err := axes.Validate(); err != nil {
		return Payload{}, err
	}
	axes = axes.withDefaults()

	countries := Countries{
		Aggregation:         breakOutCountries,
		Countries:           []string{},
		CountriesExpanded:   []Option{{Name: "All Countries", Value: selectAll}},
		CountriesSelectType: selectAll,
		CountryGroups:       emptyGroups(),
	}
	if len(axes.Countries) > 0 {
		countries.Countries = cloneStrings(axes.Countries)
		countries.CountriesExpanded = []Option{}
		countries.CountriesSelectType = selectList
	}

	return Payload{
		IsOwner:           true,
		UnitConversion:    "0",
		ManualConversions: []string{},
		ReportOptions: ReportOptions{
			TradeType:            string(axes.TradeType),
			ClassificationSystem: string(axes.Classification),
		},
		SearchOptions: SearchOptions{
			MiscGroup: MiscGroup{
				Districts: Districts{
					Aggregation:         aggregateDistrict,
					DistrictGroups:      UserGroups{UserGroups: []string{}},
					Districts:           []string{},
					DistrictsExpanded:   []Option{{Name: "All Districts", Value: selectAll}},
					DistrictsSelectType: selectAll,
				},
				ImportPrograms: ImportPrograms{
					ImportPrograms:     []string{},
					ProgramsSelectType: selectAll,
				},
				ExtImportPrograms: ExtImportPrograms{
					Aggregation:               aggregateCSC,
					ExtImportPrograms:         []string{},
					ExtImportProgramsExpanded: []Option{},
					ProgramsSelectType:        selectAll,
				},
				ProvisionCodes: ProvisionCodes{
					Aggregation:                aggregateRPCode,
					ProvisionCodesSelectType:   selectAll,
					RateProvisionCodes:         []string{},
					RateProvisionCodesExpanded: []Option{},
				},
			},
			Commodities: Commodities{
				Aggregation:         breakOutCommodities,
				CodeDisplayFormat:   "YES",
				Commodities:         []string{},
				CommoditiesExpanded: []Option{},
				CommodityGroups:     emptyGroups(),
				CommoditySelectType: selectAll,
				Granularity:         string(axes.Granularity),
			},
			ComponentSettings: ComponentSettings{
				DataToReport:        cloneStrings(axes.Measures),
				Scale:               scaleNone,
				TimeframeSelectType: timeframeFullYears,
				Years:               cloneStrings(axes.Years),
				YearsTimeline:       timelineMonthly,
			},
			Countries: countries,
		},
		SortingAndDataFormat: SortingAndDataFormat{
			DataSort: DataSort{
				ColumnOrder:     []string{"COUNTRY", "YEAR"},
				FullColumnOrder: []string{},
				SortOrder: []SortOrder{
					{SortData: "Countries", OrderBy: "asc"},
					{SortData: "Year", OrderBy: "asc"},
				},
			},
			ReportCustomizations: ReportCustomizations{
				ShowAllSubtotal: true,
				TotalRecords:    strconv.Itoa(axes.TotalRecords),
			},
		},
	}, nil
}

// ExpandYears accepts single years and inclusive ranges such as "1996-2005".
func ExpandYears(values []string) ([]string, error) {
	years := make([]string, 0, len(values))
	for _, raw := range values {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		from, to, isRange := strings.Cut(value, "-")
		if !isRange {
			years = append(years, value)
			continue
		}
		start, errStart := strconv.Atoi(strings.TrimSpace(from))
		end, errEnd := strconv.Atoi(strings.TrimSpace(to))
		if errStart != nil || errEnd != nil || !yearPattern.MatchString(strings.TrimSpace(from)) || !yearPattern.MatchString(strings.TrimSpace(to)) {
			return nil, fmt.Errorf("%w: query: invalid year range %q", model.ErrValidation, value)
		}
		if start > end {
			start, end = end, start
		}
		for year := start; year <= end; year++ {
			years = append(years, fmt.Sprintf("%04d", year))
		}
	}
	return years, nil
}

func emptyGroups() Groups {
	return Groups{SystemGroups: []string{}, UserGroups: []string{}}
}

func cloneStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
