package perf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeUnicodeText(t *testing.T) {
	b, err := EncodeUnicodeText("Hello, World!")
	require.NoError(t, err)
	assert.Len(t, b, 28)
	assert.Equal(t, []byte{'H', 0, 'e', 0}, b[:4])
	assert.Equal(t, []byte{0, 0}, b[26:])

	b, err = EncodeUnicodeText("")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0}, b)
}

func TestUnicodeTextRoundTrip(t *testing.T) {
	for _, s := range []string{"", "Hello, World!", "Привет", "emoji \U0001F600"} {
		b, err := EncodeUnicodeText(s)
		require.NoError(t, err)
		got, err := DecodeUnicodeText(b)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestDecodeUnicodeTextErrors(t *testing.T) {
	_, err := DecodeUnicodeText([]byte{'a', 0, 'b'})
	assert.ErrorIs(t, err, ErrBadSize)

	_, err = DecodeUnicodeText([]byte{'a', 0, 'b', 0})
	assert.ErrorIs(t, err, ErrStringFormat)

	s, err := DecodeUnicodeText([]byte{'a', 0, 0, 0, 'z', 0})
	require.NoError(t, err)
	assert.Equal(t, "a", s)
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		in   string
		want Query
	}{
		{"", Query{Kind: QueryGlobal}},
		{"Global", Query{Kind: QueryGlobal}},
		{"Costly", Query{Kind: QueryCostly}},
		{"Foreign", Query{Kind: QueryForeign}},
		{"230 232", Query{Kind: QueryItems, Items: []uint32{230, 232}}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseQuery(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseQuery("12 abc")
	assert.Error(t, err)
}

func TestQueryContains(t *testing.T) {
	q, err := ParseQuery("230 232")
	require.NoError(t, err)
	assert.True(t, q.Contains(232))
	assert.False(t, q.Contains(231))
	assert.Equal(t, "230 232", q.String())

	assert.True(t, Query{Kind: QueryGlobal}.Contains(1))
	assert.False(t, Query{Kind: QueryCostly}.Contains(1))
	assert.Equal(t, "Foreign", Query{Kind: QueryForeign}.String())
}
