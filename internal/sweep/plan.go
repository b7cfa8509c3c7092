package sweep

import (
	"fmt"
	"strings"

	"dataweb/internal/model"
	"dataweb/internal/query"
)

var axisOrder = []model.Axis{model.AxisYear, model.AxisMeasure, model.AxisCountry}

// Plan describes a sweep: the axis values and which axes are split into one
// request per value. Unsplit axes are sent whole with every request.
type Plan struct {
	Axes    query.Axes
	SplitBy []model.Axis
}

func (p Plan) splits(axis model.Axis) bool {
	for _, split := range p.SplitBy {
		if split == axis {
			return true
		}
	}
	return false
}

func (p Plan) values(axis model.Axis) []string {
	switch axis {
	case model.AxisYear:
		return p.Axes.Years
	case model.AxisMeasure:
		return p.Axes.Measures
	default:
		return p.Axes.Countries
	}
}

// TagNames lists the tag columns prepended to every record of the sweep.
func (p Plan) TagNames() []string {
	names := make([]string, 0, len(axisOrder)+1)
	for _, axis := range axisOrder {
		if p.splits(axis) {
			names = append(names, axis.TagName())
		}
	}
	return append(names, model.DataTypeTag)
}

// Points expands the plan into its sweep points, year-major.
func (p Plan) Points() ([]model.SweepPoint, error) {
	for _, axis := range p.SplitBy {
		switch axis {
		case model.AxisYear, model.AxisMeasure, model.AxisCountry:
		default:
			return nil, fmt.Errorf("%w: sweep: unknown split axis %q", model.ErrValidation, axis)
		}
	}
	if p.splits(model.AxisCountry) && len(p.Axes.Countries) == 0 {
		return nil, fmt.Errorf("%w: sweep: cannot split an all-countries selection", model.ErrValidation)
	}

	base := model.SweepPoint{
		Years:     p.Axes.Years,
		Measures:  p.Axes.Measures,
		Countries: p.Axes.Countries,
	}
	points := []model.SweepPoint{base}
	for _, axis := range axisOrder {
		if !p.splits(axis) {
			continue
		}
		values := p.values(axis)
		next := make([]model.SweepPoint, 0, len(points)*len(values))
		for _, point := range points {
			for _, value := range values {
				next = append(next, narrow(point, axis, value))
			}
		}
		points = next
	}
	for i := range points {
		points[i].Index = i
	}
	return points, nil
}

func narrow(point model.SweepPoint, axis model.Axis, value string) model.SweepPoint {
	single := []string{value}
	switch axis {
	case model.AxisYear:
		point.Years = single
	case model.AxisMeasure:
		point.Measures = single
	case model.AxisCountry:
		point.Countries = single
	}
	point.Tag = point.Tag.With(axis.TagName(), value)
	return point
}

// ParseSplit parses axis names such as "year,measure".
func ParseSplit(values []string) ([]model.Axis, error) {
	axes := make([]model.Axis, 0, len(values))
	seen := make(map[model.Axis]bool, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		axis, err := model.ParseAxis(value)
		if err != nil {
			return nil, err
		}
		if seen[axis] {
			continue
		}
		seen[axis] = true
		axes = append(axes, axis)
	}
	return axes, nil
}

// ExcludeCountries returns every listed country code except the excluded
// ones and the all-countries option.
func ExcludeCountries(countries []model.Country, exclude []string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, code := range exclude {
		skip[strings.TrimSpace(code)] = true
	}
	codes := make([]string, 0, len(countries))
	for _, country := range countries {
		value := strings.TrimSpace(country.Value)
		if value == "" || strings.EqualFold(value, "all") || skip[value] {
			continue
		}
		codes = append(codes, value)
	}
	return codes
}
