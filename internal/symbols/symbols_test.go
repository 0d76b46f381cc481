package symbols

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableIsValid(t *testing.T) {
	require.NoError(t, Validate(Table))
	assert.Equal(t, LastCounterOffset, Table[len(Table)-1].Offset)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		table []Symbol
	}{
		{"empty", nil},
		{"not starting at zero", []Symbol{{"A", 2}, {"B", 4}}},
		{"odd", []Symbol{{"A", 0}, {"B", 3}}},
		{"duplicate", []Symbol{{"A", 0}, {"B", 2}, {"C", 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Validate(tt.table))
		})
	}
}

func TestBaseIndices(t *testing.T) {
	for _, b := range []Base{{1000, 1001}, {2, 3}, {7000, 9000}} {
		for _, s := range Table {
			assert.Equal(t, b.FirstCounter+s.Offset, b.Name(s.Offset))
			assert.Equal(t, b.FirstHelp+s.Offset, b.Help(s.Offset))
		}
	}
}

func TestBaseValidate(t *testing.T) {
	assert.NoError(t, Base{FirstCounter: 1000, FirstHelp: 1001}.Validate())
	assert.Error(t, Base{FirstCounter: 0, FirstHelp: 1001}.Validate())
	assert.Error(t, Base{FirstCounter: 1000}.Validate())
	assert.Error(t, Base{FirstCounter: math.MaxUint32, FirstHelp: 1}.Validate())
	assert.Error(t, Base{FirstCounter: math.MaxUint32 - 1, FirstHelp: 1}.Validate())
	assert.Error(t, Base{FirstCounter: 1001, FirstHelp: 1003}.Validate())
	assert.NoError(t, Base{FirstCounter: 2, FirstHelp: 3}.Validate())
}

func TestLookup(t *testing.T) {
	name, ok := Lookup(RandomCounterOffset)
	assert.True(t, ok)
	assert.Equal(t, "COUNTER_RANDOM", name)

	_, ok = Lookup(3)
	assert.False(t, ok)
}
