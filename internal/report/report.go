// Package report decodes DataWeb runReport responses and flattens their
// column and row trees into positional records.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"dataweb/internal/model"
)

type Raw struct {
	DTO *DTO `json:"dto"`
}

type DTO struct {
	Tables []Table `json:"tables"`
}

type Table struct {
	Name         string      `json:"name,omitempty"`
	ColumnGroups ColumnNodes `json:"column_groups"`
	RowGroups    RowNodes    `json:"row_groups"`
}

// Flatten returns the leaf column labels and the row values of one table,
// both in tree order so that position i of a row belongs to label i.
func (t Table) Flatten() ([]string, [][]any) {
	return FlattenColumns(t.ColumnGroups), FlattenRows(t.RowGroups)
}

// Ragged reports rows whose width differs from the number of column labels.
func (t Table) Ragged() []int {
	labels, rows := t.Flatten()
	var ragged []int
	for i, row := range rows {
		if len(row) != len(labels) {
			ragged = append(ragged, i)
		}
	}
	return ragged
}

type envelope struct {
	DTO    json.RawMessage `json:"dto"`
	Errors json.RawMessage `json:"errors"`
}

type dtoEnvelope struct {
	Tables json.RawMessage `json:"tables"`
	Errors json.RawMessage `json:"errors"`
}

// Decode parses a runReport body. A body without dto.tables or with a
// non-empty error list is malformed; it never decodes to an empty report.
func Decode(body []byte) (*Raw, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: report: body is not a JSON object: %s", model.ErrMalformed, snippet(trimmed))
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: report: %v", model.ErrMalformed, err)
	}
	if messages := errorMessages(env.Errors); len(messages) > 0 {
		return nil, fmt.Errorf("%w: report: api errors: %s", model.ErrMalformed, strings.Join(messages, "; "))
	}
	if isNull(env.DTO) {
		return nil, fmt.Errorf("%w: report: missing dto: %s", model.ErrMalformed, snippet(trimmed))
	}

	var dto dtoEnvelope
	if err := json.Unmarshal(env.DTO, &dto); err != nil {
		return nil, fmt.Errorf("%w: report: dto: %v", model.ErrMalformed, err)
	}
	if messages := errorMessages(dto.Errors); len(messages) > 0 {
		return nil, fmt.Errorf("%w: report: api errors: %s", model.ErrMalformed, strings.Join(messages, "; "))
	}
	if isNull(dto.Tables) {
		return nil, fmt.Errorf("%w: report: missing dto.tables", model.ErrMalformed)
	}

	var tables []Table
	if err := json.Unmarshal(dto.Tables, &tables); err != nil {
		return nil, fmt.Errorf("%w: report: tables: %v", model.ErrMalformed, err)
	}
	if tables == nil {
		tables = []Table{}
	}
	return &Raw{DTO: &DTO{Tables: tables}}, nil
}

func (r *Raw) Tables() []Table {
	if r == nil || r.DTO == nil {
		return nil
	}
	return r.DTO.Tables
}

func errorMessages(raw json.RawMessage) []string {
	if isNull(raw) {
		return nil
	}
	// Only a non-empty list or a non-blank string is an error.
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		var single string
		if err := json.Unmarshal(raw, &single); err != nil || strings.TrimSpace(single) == "" {
			return nil
		}
		return []string{single}
	}
	messages := make([]string, 0, len(list))
	for _, item := range list {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			messages = append(messages, text)
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(item, &obj); err == nil {
			if message, ok := obj["message"].(string); ok && message != "" {
				messages = append(messages, message)
				continue
			}
		}
		messages = append(messages, string(item))
	}
	return messages
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
