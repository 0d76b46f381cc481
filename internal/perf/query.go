package perf

import (
	"fmt"
	"strconv"
	"strings"
)

// QueryKind classifies the value name a host passes to Collect.
type QueryKind int

const (
	QueryGlobal QueryKind = iota
	QueryCostly
	QueryForeign
	QueryItems
)

func (k QueryKind) String() string {
	switch k {
	case QueryGlobal:
		return "Global"
	case QueryCostly:
		return "Costly"
	case QueryForeign:
		return "Foreign"
	case QueryItems:
		return "Items"
	default:
		return fmt.Sprintf("QueryKind(%d)", int(k))
	}
}

// Query is a parsed Collect value name.
type Query struct {
	Kind  QueryKind
	Items []uint32
}

// ParseQuery parses "Global" (or empty), "Costly", "Foreign" or a whitespace separated
// list of object name indices.
func ParseQuery(s string) (Query, error) {
	switch strings.TrimSpace(s) {
	case "", "Global":
		return Query{Kind: QueryGlobal}, nil
	case "Costly":
		return Query{Kind: QueryCostly}, nil
	case "Foreign":
		return Query{Kind: QueryForeign}, nil
	}
	fields := strings.Fields(s)
	items := make([]uint32, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return Query{}, fmt.Errorf("invalid query item %q: %w", f, err)
		}
		items = append(items, uint32(v))
	}
	return Query{Kind: QueryItems, Items: items}, nil
}

// Contains reports whether the query asks for the object with the given name index.
// Global queries contain every object; Costly and Foreign contain none.
func (q Query) Contains(nameIndex uint32) bool {
	switch q.Kind {
	case QueryGlobal:
		return true
	case QueryItems:
		for _, it := range q.Items {
			if it == nameIndex {
				return true
			}
		}
	}
	return false
}

func (q Query) String() string {
	if q.Kind != QueryItems {
		return q.Kind.String()
	}
	parts := make([]string, len(q.Items))
	for i, it := range q.Items {
		parts[i] = strconv.FormatUint(uint64(it), 10)
	}
	return strings.Join(parts, " ")
}
