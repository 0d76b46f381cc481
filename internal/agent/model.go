// Package agent provides configuration and data structures for the polling agent.
package agent

import (
	"strconv"

	models "github.com/Schera-ole/perfcounter/internal/model"
)

// Reading is a single counter value seen by the agent.
type Reading struct {
	// Object is the object's symbol, or its name index when the symbol is unknown
	Object string

	// Counter is the counter's symbol, or its name index when the symbol is unknown
	Counter string

	// Kind is the counter value kind reported by the server
	Kind string

	// Value is the decoded value (number or text)
	Value any
}

// Flatten turns decoded objects into one reading per counter, in collection order.
func Flatten(objects []models.ObjectDTO) []Reading {
	var readings []Reading
	for _, obj := range objects {
		object := label(obj.Symbol, obj.NameIndex)
		for _, c := range obj.Counters {
			readings = append(readings, Reading{
				Object:  object,
				Counter: label(c.Symbol, c.NameIndex),
				Kind:    c.Kind,
				Value:   c.Value,
			})
		}
	}
	return readings
}

func label(symbol string, index uint32) string {
	if symbol != "" {
		return symbol
	}
	return strconv.FormatUint(uint64(index), 10)
}
