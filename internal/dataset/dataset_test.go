package dataset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataweb/internal/model"
)

func yearTag(year string) model.Tag {
	return model.Tag{{Name: "query_year", Value: year}}
}

func batch(width, rows int, prefix string) ([]string, [][]any) {
	labels := make([]string, width)
	for i := range labels {
		labels[i] = prefix + string(rune('A'+i))
	}
	out := make([][]any, rows)
	for r := range out {
		row := make([]any, width)
		for i := range row {
			row[i] = r*10 + i
		}
		out[r] = row
	}
	return labels, out
}

func TestMergeWidensAndPadsWithNulls(t *testing.T) {
	ds := New([]string{"query_year"}, Positional)

	labels5, rows5 := batch(4, 2, "")
	require.NoError(t, ds.Merge(labels5, rows5, yearTag("1996")))
	assert.Equal(t, 5, ds.Width())

	labels8, rows8 := batch(7, 3, "")
	require.NoError(t, ds.Merge(labels8, rows8, yearTag("1997")))

	assert.Equal(t, 8, ds.Width())
	require.Equal(t, 5, ds.Len())
	for i, record := range ds.Records {
		assert.Lenf(t, record, 8, "record %d", i)
	}
	for _, record := range ds.Records[:2] {
		assert.Equal(t, "1996", record[0])
		assert.Equal(t, []any{nil, nil, nil}, record[5:])
	}
	for _, record := range ds.Records[2:] {
		assert.Equal(t, "1997", record[0])
		assert.NotContains(t, record, nil)
	}
}

func TestMergeNarrowBatchAfterWideOne(t *testing.T) {
	ds := New([]string{"query_year"}, Positional)

	wideLabels, wideRows := batch(7, 1, "")
	require.NoError(t, ds.Merge(wideLabels, wideRows, yearTag("1997")))
	narrowLabels, narrowRows := batch(4, 1, "n")
	require.NoError(t, ds.Merge(narrowLabels, narrowRows, yearTag("1996")))

	assert.Equal(t, 8, ds.Width())
	assert.Equal(t, []string{"query_year", "A", "B", "C", "D", "E", "F", "G"}, ds.Header)
	assert.Equal(t, []any{nil, nil, nil}, ds.Records[1][5:])
}

func TestMergeUsesLongestRowWhenLabelsAreShort(t *testing.T) {
	ds := New([]string{"query_year"}, Positional)
	require.NoError(t, ds.Merge([]string{"Country"}, [][]any{{"China", 1, 2}}, yearTag("1996")))

	assert.Equal(t, []string{"query_year", "Country", "col_2", "col_3"}, ds.Header)
	assert.Equal(t, []any{"1996", "China", 1, 2}, ds.Records[0])

	require.NoError(t, ds.Merge([]string{"Country", "Value"}, [][]any{{"Japan", 5}}, yearTag("1997")))
	assert.Equal(t, []string{"query_year", "Country", "Value", "col_3"}, ds.Header)
	assert.Equal(t, []any{"1997", "Japan", 5, nil}, ds.Records[1])
}

func TestMergeEmptyBatchOnlyGrowsHeader(t *testing.T) {
	ds := New([]string{"query_year"}, Positional)
	require.NoError(t, ds.Merge([]string{"A", "B"}, nil, yearTag("1996")))
	assert.Equal(t, 3, ds.Width())
	assert.Equal(t, 0, ds.Len())
}

func TestMergeRejectsMismatchedTag(t *testing.T) {
	ds := New([]string{"query_year", "data_type"}, Positional)
	err := ds.Merge([]string{"A"}, [][]any{{1}}, yearTag("1996"))
	require.Error(t, err)

	err = ds.Merge([]string{"A"}, [][]any{{1}}, model.Tag{{Name: "query_measure", Value: "X"}, {Name: "data_type", Value: "Y"}})
	require.Error(t, err)
	assert.Equal(t, 0, ds.Len())
}

func TestMergeByLabelAlignsColumns(t *testing.T) {
	ds := New([]string{"query_year"}, ByLabel)

	require.NoError(t, ds.Merge(
		[]string{"Country", "January", "Total"},
		[][]any{{"China", 1, 10}},
		yearTag("1996"),
	))
	require.NoError(t, ds.Merge(
		[]string{"Country", "February", "January", "Total"},
		[][]any{{"China", 2, 3, 20}},
		yearTag("1997"),
	))

	assert.Equal(t, []string{"query_year", "Country", "January", "Total", "February"}, ds.Header)
	assert.Equal(t, []any{"1996", "China", 1, 10, nil}, ds.Records[0])
	assert.Equal(t, []any{"1997", "China", 3, 20, 2}, ds.Records[1])
}

func TestMergeByLabelKeepsDuplicateLabelsApart(t *testing.T) {
	ds := New(nil, ByLabel)
	require.NoError(t, ds.Merge([]string{"Value", "Value"}, [][]any{{1, 2}}, nil))
	require.NoError(t, ds.Merge([]string{"Value"}, [][]any{{3}}, nil))

	assert.Equal(t, []string{"Value", "Value"}, ds.Header)
	assert.Equal(t, []any{3, nil}, ds.Records[1])
}

func TestParsePolicy(t *testing.T) {
	policy, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Positional, policy)

	policy, err = ParsePolicy("Label")
	require.NoError(t, err)
	assert.Equal(t, ByLabel, policy)

	_, err = ParsePolicy("fuzzy")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestFormatValue(t *testing.T) {
	ds := New([]string{"query_year"}, Positional)
	require.NoError(t, ds.Merge([]string{"A", "B", "C"}, [][]any{{json.Number("12.50"), 3.25, nil}}, yearTag("1996")))
	got := make([]string, 0, len(ds.Records[0]))
	for _, value := range ds.Records[0] {
		got = append(got, FormatValue(value))
	}
	assert.Equal(t, []string{"1996", "12.50", "3.25", ""}, got)
}
