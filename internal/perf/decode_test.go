package perf

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildObject packs an object with a LARGE counter followed by an ASCII text counter.
func buildObject(t *testing.T) []byte {
	t.Helper()

	text := []byte("caf\xe9\x00\x00\x00\x00")
	large := CounterDefinition{
		ByteLength:            CounterDefinitionSize,
		CounterNameTitleIndex: 10,
		CounterHelpTitleIndex: 11,
		CounterType:           CounterType(SizeLarge | TypeCounter),
		CounterSize:           8,
		CounterOffset:         CounterBlockSize,
	}
	ascii := CounterDefinition{
		ByteLength:            CounterDefinitionSize,
		CounterNameTitleIndex: 12,
		CounterHelpTitleIndex: 13,
		CounterType:           CounterType(SizeVariableLen | TypeText | TextASCII),
		CounterSize:           uint32(len(text)),
		CounterOffset:         large.CounterOffset + large.CounterSize,
	}
	block := CounterBlock{ByteLength: ascii.CounterOffset + ascii.CounterSize}
	obj := ObjectType{
		DefinitionLength:     ObjectTypeSize + 2*CounterDefinitionSize,
		HeaderLength:         ObjectTypeSize,
		ObjectNameTitleIndex: 8,
		ObjectHelpTitleIndex: 9,
		NumCounters:          2,
		NumInstances:         NoInstances,
	}
	obj.TotalByteLength = RoundUp8(obj.DefinitionLength + block.ByteLength)

	c := NewCursor(make([]byte, obj.TotalByteLength+16))
	w, err := c.Reserve(int(obj.TotalByteLength))
	require.NoError(t, err)
	require.NoError(t, obj.WriteTo(w))
	require.NoError(t, large.WriteTo(w))
	require.NoError(t, ascii.WriteTo(w))
	start := w.Len()
	require.NoError(t, block.WriteTo(w))

	var v [8]byte
	binary.LittleEndian.PutUint64(v[:], 1<<40)
	_, err = w.WriteAt(v[:], int64(start)+int64(large.CounterOffset))
	require.NoError(t, err)
	_, err = w.WriteAt(text, int64(start)+int64(ascii.CounterOffset))
	require.NoError(t, err)
	require.NoError(t, c.Advance(w.Cap()))
	return c.Bytes()
}

func TestDecodeObject(t *testing.T) {
	data := buildObject(t)
	tail := append(append([]byte{}, data...), 0xde, 0xad)

	obj, rest, err := DecodeObject(tail)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad}, rest)
	assert.Equal(t, uint32(2), obj.Header.NumCounters)
	require.Len(t, obj.Counters, 2)

	v, err := obj.Value(0)
	require.NoError(t, err)
	assert.Equal(t, KindLarge, v.Kind)
	assert.Equal(t, uint64(1<<40), v.Any())

	v, err = obj.Value(1)
	require.NoError(t, err)
	assert.Equal(t, KindText, v.Kind)
	assert.Equal(t, "café", v.Text)

	i, ok := obj.Find(12)
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = obj.Find(99)
	assert.False(t, ok)

	_, err = obj.Value(2)
	assert.Error(t, err)
}

func TestDecodeObjects(t *testing.T) {
	one := buildObject(t)
	two := append(append([]byte{}, one...), one...)

	objects, err := DecodeObjects(two, 2)
	require.NoError(t, err)
	assert.Len(t, objects, 2)

	_, err = DecodeObjects(one, 2)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeObjectErrors(t *testing.T) {
	data := buildObject(t)

	_, _, err := DecodeObject(data[:ObjectTypeSize-1])
	assert.ErrorIs(t, err, ErrTruncated)

	_, _, err = DecodeObject(data[:len(data)-8])
	assert.ErrorIs(t, err, ErrTruncated)

	multi := append([]byte{}, data...)
	binary.LittleEndian.PutUint32(multi[40:], 3)
	_, _, err = DecodeObject(multi)
	assert.ErrorIs(t, err, ErrInstancesUnsupported)

	badHeader := append([]byte{}, data...)
	binary.LittleEndian.PutUint32(badHeader[8:], 4)
	_, _, err = DecodeObject(badHeader)
	assert.ErrorIs(t, err, ErrBadLength)

	// more counters than the definition area can hold is rejected before allocating
	tooMany := append([]byte{}, data...)
	binary.LittleEndian.PutUint32(tooMany[32:], 0xFFFFFFFF)
	_, _, err = DecodeObject(tooMany)
	assert.ErrorIs(t, err, ErrBadLength)

	tooMany = append([]byte{}, data...)
	binary.LittleEndian.PutUint32(tooMany[32:], 3)
	_, _, err = DecodeObject(tooMany)
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestObjectValueBadSize(t *testing.T) {
	obj := Object{
		Counters: []CounterDefinition{{CounterType: CounterTypeDword, CounterSize: 2, CounterOffset: 4}},
		Data:     make([]byte, 8),
	}
	_, err := obj.Value(0)
	assert.ErrorIs(t, err, ErrBadSize)

	obj.Counters[0].CounterSize = 8
	_, err = obj.Value(0)
	assert.ErrorIs(t, err, ErrBadSize)

	obj.Counters[0] = CounterDefinition{CounterType: CounterType(SizeVariableLen | TypeNumber), CounterSize: 4, CounterOffset: 4}
	_, err = obj.Value(0)
	assert.ErrorIs(t, err, ErrUnknownType)
}
