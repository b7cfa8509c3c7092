package report

import (
	"bytes"
	"encoding/json"
)

// RowNode is one node of a row_groups tree: a Row leaf, a RowGroup or a
// RowList.
type RowNode interface {
	rowNode()
}

type Row struct {
	Entries []Cell
}

type RowGroup struct {
	Rows RowNodes
}

type RowList RowNodes

func (Row) rowNode()      {}
func (RowGroup) rowNode() {}
func (RowList) rowNode()  {}

// Cell holds one scalar value. Numbers keep their textual form as json.Number.
type Cell struct {
	Value any
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	raw, ok := fields["value"]
	if !ok || isNull(raw) {
		c.Value = nil
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return err
	}
	c.Value = value
	return nil
}

var groupKeys = []string{"rowsNew", "rows", "row_groups", "rowGroups"}

type RowNodes []RowNode

func (n *RowNodes) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*n = nil
		return nil
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		node, err := decodeRowNode(trimmed)
		if err != nil {
			return err
		}
		*n = nil
		if node != nil {
			*n = RowNodes{node}
		}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	nodes := make(RowNodes, 0, len(items))
	for _, item := range items {
		node, err := decodeRowNode(item)
		if err != nil {
			return err
		}
		if node != nil {
			nodes = append(nodes, node)
		}
	}
	*n = nodes
	return nil
}

func decodeRowNode(data json.RawMessage) (RowNode, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var list RowNodes
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return RowList(list), nil
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, err
		}
		if entries, ok := fields["rowEntries"]; ok {
			var cells []Cell
			if !isNull(entries) {
				if err := json.Unmarshal(entries, &cells); err != nil {
					return nil, err
				}
			}
			return Row{Entries: cells}, nil
		}
		for _, key := range groupKeys {
			children, ok := fields[key]
			if !ok || isNull(children) {
				continue
			}
			var rows RowNodes
			if err := json.Unmarshal(children, &rows); err != nil {
				return nil, err
			}
			return RowGroup{Rows: rows}, nil
		}
		return nil, nil
	default:
		return nil, nil
	}
}

// FlattenRows returns one value sequence per leaf row, in tree order. Groups
// nest to any depth.
func FlattenRows(nodes []RowNode) [][]any {
	return appendRows(nil, nodes)
}

func appendRows(rows [][]any, nodes []RowNode) [][]any {
	for _, node := range nodes {
		switch typed := node.(type) {
		case Row:
			values := make([]any, len(typed.Entries))
			for i, cell := range typed.Entries {
				values[i] = cell.Value
			}
			rows = append(rows, values)
		case RowGroup:
			rows = appendRows(rows, typed.Rows)
		case RowList:
			rows = appendRows(rows, typed)
		}
	}
	return rows
}
