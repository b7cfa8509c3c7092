package report

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ColumnNode is one node of a column_groups tree: a ColumnLeaf, a
// ColumnGroup or a ColumnList.
type ColumnNode interface {
	columnNode()
}

type ColumnLeaf struct {
	Label string
}

type ColumnGroup struct {
	Label   string
	Columns ColumnNodes
}

type ColumnList ColumnNodes

func (ColumnLeaf) columnNode()  {}
func (ColumnGroup) columnNode() {}
func (ColumnList) columnNode()  {}

type ColumnNodes []ColumnNode

func (n *ColumnNodes) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*n = nil
		return nil
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		node, err := decodeColumnNode(trimmed)
		if err != nil {
			return err
		}
		*n = nil
		if node != nil {
			*n = ColumnNodes{node}
		}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	nodes := make(ColumnNodes, 0, len(items))
	for _, item := range items {
		node, err := decodeColumnNode(item)
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

// decodeColumnNode returns nil for nodes that carry neither children nor a
// label; they contribute no columns.
func decodeColumnNode(data json.RawMessage) (ColumnNode, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var list ColumnNodes
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return ColumnList(list), nil
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, err
		}
		if columns, ok := fields["columns"]; ok && !isNull(columns) {
			var children ColumnNodes
			if err := json.Unmarshal(columns, &children); err != nil {
				return nil, err
			}
			return ColumnGroup{Label: labelText(fields["label"]), Columns: children}, nil
		}
		if label, ok := fields["label"]; ok {
			return ColumnLeaf{Label: labelText(label)}, nil
		}
		return nil, nil
	default:
		return nil, nil
	}
}

func labelText(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return strings.TrimSpace(string(raw))
}

// FlattenColumns walks the tree depth-first, pre-order, and returns the leaf
// labels in emission order. Repeated labels are kept.
func FlattenColumns(nodes []ColumnNode) []string {
	labels := make([]string, 0, len(nodes))
	return appendColumns(labels, nodes)
}

func appendColumns(labels []string, nodes []ColumnNode) []string {
	for _, node := range nodes {
		switch typed := node.(type) {
		case ColumnGroup:
			labels = appendColumns(labels, typed.Columns)
		case ColumnList:
			labels = appendColumns(labels, typed)
		case ColumnLeaf:
			labels = append(labels, typed.Label)
		}
	}
	return labels
}

// CountLeaves returns the number of labelled leaves in the tree.
func CountLeaves(nodes []ColumnNode) int {
	count := 0
	for _, node := range nodes {
		switch typed := node.(type) {
		case ColumnGroup:
			count += CountLeaves(typed.Columns)
		case ColumnList:
			count += CountLeaves(typed)
		case ColumnLeaf:
			count++
		}
	}
	return count
}
