// Package dataset accumulates flattened report batches into one rectangular
// table.
//
// The default Positional policy concatenates values by position only. Labels
// of differently-shaped batches are not matched, so columns may not align
// across batches whose column trees differ; the merged table is rectangular
// but not guaranteed to be schema-consistent. The ByLabel policy aligns values
// by column label instead.
package dataset

import (
	"fmt"
	"strings"

	"dataweb/internal/model"
)

type Policy string

const (
	Positional Policy = "positional"
	ByLabel    Policy = "label"
)

func ParsePolicy(value string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "positional", "position":
		return Positional, nil
	case "label", "labels", "by-label", "by_label":
		return ByLabel, nil
	default:
		return "", fmt.Errorf("%w: dataset: unknown reconcile policy %q", model.ErrValidation, value)
	}
}

// Dataset is the canonical header plus records. Every record has exactly
// Width() values; nil is the null sentinel used for padding.
type Dataset struct {
	Header  []string
	Records [][]any

	policy   Policy
	tagNames []string
	// generic marks data positions whose header name is a col_<n> fallback.
	generic map[int]bool
	// slots maps a label to its data positions, one per occurrence (ByLabel).
	slots map[string][]int
}

func New(tagNames []string, policy Policy) *Dataset {
	if policy == "" {
		policy = Positional
	}
	names := make([]string, len(tagNames))
	copy(names, tagNames)
	header := make([]string, len(tagNames))
	copy(header, tagNames)
	return &Dataset{
		Header:   header,
		Records:  [][]any{},
		policy:   policy,
		tagNames: names,
		generic:  make(map[int]bool),
		slots:    make(map[string][]int),
	}
}

func (d *Dataset) Width() int {
	return len(d.Header)
}

func (d *Dataset) TagWidth() int {
	return len(d.tagNames)
}

func (d *Dataset) Len() int {
	return len(d.Records)
}

func (d *Dataset) Policy() Policy {
	return d.policy
}

// Merge appends one batch of rows, prefixed with the tag values. The
// canonical width becomes max(current width, tag width + batch width), where
// the batch width is the larger of the label count and the longest row.
// Records shorter than the canonical width are padded with nil on the right.
func (d *Dataset) Merge(labels []string, rows [][]any, tag model.Tag) error {
	if err := d.checkTag(tag); err != nil {
		return err
	}
	batchWidth := len(labels)
	for _, row := range rows {
		if len(row) > batchWidth {
			batchWidth = len(row)
		}
	}

	switch d.policy {
	case ByLabel:
		d.mergeByLabel(labels, rows, tag, batchWidth)
	default:
		d.mergePositional(labels, rows, tag, batchWidth)
	}
	return nil
}

func (d *Dataset) checkTag(tag model.Tag) error {
	if len(tag) != len(d.tagNames) {
		return fmt.Errorf("dataset: tag has %d fields, dataset expects %d", len(tag), len(d.tagNames))
	}
	for i, field := range tag {
		if field.Name != d.tagNames[i] {
			return fmt.Errorf("dataset: tag field %d is %q, dataset expects %q", i, field.Name, d.tagNames[i])
		}
	}
	return nil
}

func (d *Dataset) mergePositional(labels []string, rows [][]any, tag model.Tag, batchWidth int) {
	tagWidth := len(d.tagNames)
	for i := 0; i < batchWidth; i++ {
		position := tagWidth + i
		label, labelled := labelAt(labels, i)
		switch {
		case position >= len(d.Header):
			d.Header = append(d.Header, label)
			d.generic[i] = !labelled
		case d.generic[i] && labelled:
			d.Header[position] = label
			d.generic[i] = false
		}
	}
	d.padRecords()

	for _, row := range rows {
		record := d.newRecord(tag)
		copy(record[tagWidth:], row)
		d.Records = append(d.Records, record)
	}
}

func (d *Dataset) mergeByLabel(labels []string, rows [][]any, tag model.Tag, batchWidth int) {
	positions := make([]int, batchWidth)
	seen := make(map[string]int, batchWidth)
	for i := 0; i < batchWidth; i++ {
		label, _ := labelAt(labels, i)
		occurrence := seen[label]
		seen[label] = occurrence + 1

		slots := d.slots[label]
		if occurrence < len(slots) {
			positions[i] = slots[occurrence]
			continue
		}
		position := len(d.Header)
		d.Header = append(d.Header, label)
		d.slots[label] = append(slots, position)
		positions[i] = position
	}
	d.padRecords()

	for _, row := range rows {
		record := d.newRecord(tag)
		for i, value := range row {
			record[positions[i]] = value
		}
		d.Records = append(d.Records, record)
	}
}

func (d *Dataset) newRecord(tag model.Tag) []any {
	record := make([]any, len(d.Header))
	for i, field := range tag {
		record[i] = field.Value
	}
	return record
}

func (d *Dataset) padRecords() {
	width := len(d.Header)
	for i, record := range d.Records {
		if len(record) < width {
			padded := make([]any, width)
			copy(padded, record)
			d.Records[i] = padded
		}
	}
}

// labelAt returns the label for data position i, falling back to col_<n>
// when the batch has fewer labels than values.
func labelAt(labels []string, i int) (string, bool) {
	if i < len(labels) && strings.TrimSpace(labels[i]) != "" {
		return labels[i], true
	}
	return fmt.Sprintf("col_%d", i+1), false
}
