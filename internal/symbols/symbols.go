// Package symbols holds the relative name/help offsets of the counter object and its
// counters. The same offsets are used by the registration file that loads names and
// help texts into the host's registry; they must start at 0 and be even.
package symbols

import (
	"fmt"
	"math"
)

// Relative offsets.
const (
	ObjectOffset        uint32 = 0
	TextCounterOffset   uint32 = 2
	RandomCounterOffset uint32 = 4
	CustomCounterOffset uint32 = 6

	LastCounterOffset = CustomCounterOffset
)

// Symbol names a relative offset.
type Symbol struct {
	Name   string
	Offset uint32
}

// Table lists every symbol in offset order.
var Table = []Symbol{
	{Name: "PERFCOUNTER_OBJECT", Offset: ObjectOffset},
	{Name: "COUNTER_TEXT", Offset: TextCounterOffset},
	{Name: "COUNTER_RANDOM", Offset: RandomCounterOffset},
	{Name: "COUNTER_CUSTOM", Offset: CustomCounterOffset},
}

// Validate checks that the table starts at 0 and that offsets are even and strictly
// increasing.
func Validate(table []Symbol) error {
	if len(table) == 0 {
		return fmt.Errorf("empty symbol table")
	}
	if table[0].Offset != 0 {
		return fmt.Errorf("symbol %s: first offset is %d, want 0", table[0].Name, table[0].Offset)
	}
	for i, s := range table {
		if s.Offset%2 != 0 {
			return fmt.Errorf("symbol %s: offset %d is odd", s.Name, s.Offset)
		}
		if i > 0 && s.Offset <= table[i-1].Offset {
			return fmt.Errorf("symbol %s: offset %d does not follow %d", s.Name, s.Offset, table[i-1].Offset)
		}
	}
	return nil
}

// Lookup returns the symbol name of a relative offset.
func Lookup(offset uint32) (string, bool) {
	for _, s := range Table {
		if s.Offset == offset {
			return s.Name, true
		}
	}
	return "", false
}

// Base is the pair of "First Counter" / "First Help" values the host assigned to a
// provider when its names were loaded.
type Base struct {
	FirstCounter uint32 `json:"first_counter"`
	FirstHelp    uint32 `json:"first_help"`
}

// Name returns the absolute name index of a relative offset.
func (b Base) Name(offset uint32) uint32 { return b.FirstCounter + offset }

// Help returns the absolute help index of a relative offset.
func (b Base) Help(offset uint32) uint32 { return b.FirstHelp + offset }

// Validate checks that both bases are set and leave room for every symbol. Name indices
// are even, so an odd FirstCounter is rejected.
func (b Base) Validate() error {
	if b.FirstCounter == 0 || b.FirstHelp == 0 {
		return fmt.Errorf("first counter and first help must be positive, got %d/%d", b.FirstCounter, b.FirstHelp)
	}
	if b.FirstCounter%2 != 0 {
		return fmt.Errorf("first counter %d must be even", b.FirstCounter)
	}
	if b.FirstCounter > math.MaxUint32-LastCounterOffset || b.FirstHelp > math.MaxUint32-LastCounterOffset {
		return fmt.Errorf("base %d/%d overflows the index range", b.FirstCounter, b.FirstHelp)
	}
	return nil
}
