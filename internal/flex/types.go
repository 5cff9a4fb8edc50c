// Package flex talks to the Flex rental-management API and converts its
// nested equipment-list exports into the flat, typed form the rest of the
// application persists.
//
// Flex row data is not schema-guaranteed: fields come and go, quantities may
// arrive as numbers or strings, and grouping nodes carry no resource id. The
// decode step in this file classifies and validates each node's shape once,
// at the ingestion boundary, so everything downstream works over a fully
// typed model.
package flex

import (
	"encoding/json"
	"fmt"
	"io"
)

// RawNode is one node of the Flex equipment tree after tolerant decoding.
type RawNode struct {
	ResourceID string
	Name       string
	Quantity   *int
	Note       *string
	IsVirtual  bool
	Children   []RawNode
}

// Section is a top-level grouping in the export ("FOH", "MON", ...).
// JobName is the section's upstream link element name when present; the
// first section carrying one names the job.
type Section struct {
	Name     string
	JobName  string
	Children []RawNode
}

// DecodeSections reads the raw row-data payload and produces the typed
// section forest. Malformed JSON is an error; a payload that is valid JSON
// but not an array (Flex returns an object on some error paths) decodes to
// an empty forest rather than failing the import.
func DecodeSections(r io.Reader) ([]Section, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode flex row data: %w", err)
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, nil
	}

	sections := make([]Section, 0, len(list))
	for _, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		sec := Section{
			Name:     asString(m["name"]),
			Children: decodeNodes(m["children"]),
		}
		if link, ok := m["upstreamLink"].(map[string]any); ok {
			sec.JobName = asString(link["elementName"])
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

// decodeNodes converts a loosely-typed children value into typed nodes.
// Entries that are not objects or carry no name are dropped.
func decodeNodes(v any) []RawNode {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	nodes := make([]RawNode, 0, len(list))
	for _, item := range list {
		if n, ok := decodeNode(item); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func decodeNode(v any) (RawNode, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return RawNode{}, false
	}
	name := asString(m["name"])
	if name == "" {
		return RawNode{}, false
	}

	n := RawNode{
		ResourceID: asString(m["resourceId"]),
		Name:       name,
		IsVirtual:  asBool(m["isVirtual"]),
		Children:   decodeNodes(m["children"]),
	}
	if q, ok := asInt(m["quantity"]); ok {
		n.Quantity = &q
	}
	if note := asString(m["note"]); note != "" {
		n.Note = &note
	}
	return n, true
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// asInt accepts the quantity representations Flex has been observed to emit:
// JSON numbers (decoded as json.Number) and numeric strings.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			if f, ferr := n.Float64(); ferr == nil {
				return int(f), true
			}
			return 0, false
		}
		return int(i), true
	case string:
		var i int
		if _, err := fmt.Sscanf(n, "%d", &i); err != nil {
			return 0, false
		}
		return i, true
	case float64:
		return int(n), true
	}
	return 0, false
}
