package model

import (
	"fmt"
	"strings"
	"time"
)

type Granularity string

const (
	Granularity2  Granularity = "2"
	Granularity4  Granularity = "4"
	Granularity6  Granularity = "6"
	Granularity8  Granularity = "8"
	Granularity10 Granularity = "10"
)

func (g Granularity) Valid() bool {
	switch g {
	case Granularity2, Granularity4, Granularity6, Granularity8, Granularity10:
		return true
	default:
		return false
	}
}

type TradeType string

const (
	TradeImport        TradeType = "Import"
	TradeExport        TradeType = "Export"
	TradeGeneralImport TradeType = "GenImp"
)

func (t TradeType) Valid() bool {
	switch t {
	case TradeImport, TradeExport, TradeGeneralImport:
		return true
	default:
		return false
	}
}

type Classification string

const (
	ClassificationHTS   Classification = "HTS"
	ClassificationSITC  Classification = "SITC"
	ClassificationNAICS Classification = "NAICS"
)

func (c Classification) Valid() bool {
	switch c {
	case ClassificationHTS, ClassificationSITC, ClassificationNAICS:
		return true
	default:
		return false
	}
}

// Axis names a sweep dimension that can be split into one request per value.
type Axis string

const (
	AxisYear    Axis = "year"
	AxisMeasure Axis = "measure"
	AxisCountry Axis = "country"
)

func ParseAxis(value string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "year", "years":
		return AxisYear, nil
	case "measure", "measures":
		return AxisMeasure, nil
	case "country", "countries":
		return AxisCountry, nil
	default:
		return "", fmt.Errorf("%w: unknown sweep axis %q", ErrValidation, value)
	}
}

// TagName is the dataset column carrying the axis value of a split point.
func (a Axis) TagName() string {
	return "query_" + string(a)
}

// DataTypeTag is the last tag field of every record: the measure a table reports.
const DataTypeTag = "data_type"

type TagField struct {
	Name  string
	Value string
}

type Tag []TagField

func (t Tag) With(name, value string) Tag {
	out := make(Tag, 0, len(t)+1)
	out = append(out, t...)
	return append(out, TagField{Name: name, Value: value})
}

func (t Tag) String() string {
	if len(t) == 0 {
		return "all"
	}
	parts := make([]string, len(t))
	for i, field := range t {
		parts[i] = field.Name + "=" + field.Value
	}
	return strings.Join(parts, ",")
}

type Country struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Halted     bool
	Error      string
}

// SweepPoint is one request of a sweep. Axes that are not split carry their
// full value list.
type SweepPoint struct {
	Index     int
	Years     []string
	Measures  []string
	Countries []string
	Tag       Tag
}

func (p SweepPoint) String() string {
	return fmt.Sprintf("#%d[%s]", p.Index+1, p.Tag)
}
