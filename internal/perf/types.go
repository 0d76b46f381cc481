// Package perf implements the binary layout of extensible performance counter data:
// PERF_OBJECT_TYPE, PERF_COUNTER_DEFINITION and PERF_COUNTER_BLOCK, as the monitoring
// host expects them in the buffer handed to a provider's Collect entry point.
//
// All multi-byte fields are little-endian and laid out with the natural packing of the
// 64-bit ABI. Pointer-sized title fields are 32-bit placeholders there and are always zero.
package perf

// Counter type size field.
const (
	SizeDword       uint32 = 0x00000000
	SizeLarge       uint32 = 0x00000100
	SizeZero        uint32 = 0x00000200
	SizeVariableLen uint32 = 0x00000300
)

// Counter type usage field.
const (
	TypeNumber  uint32 = 0x00000000
	TypeCounter uint32 = 0x00000400
	TypeText    uint32 = 0x00000800
	TypeZero    uint32 = 0x00000C00
)

// Subtypes of TypeNumber.
const (
	NumberHex     uint32 = 0x00000000
	NumberDecimal uint32 = 0x00010000
	NumberDec1000 uint32 = 0x00020000
)

// Subtypes of TypeText.
const (
	TextUnicode uint32 = 0x00000000
	TextASCII   uint32 = 0x00010000
)

// Bit masks of the CounterType fields.
const (
	maskSize    uint32 = 0x00000300
	maskType    uint32 = 0x00000C00
	maskSubType uint32 = 0x000F0000
)

// DetailLevel values.
const (
	DetailNovice   uint32 = 100
	DetailAdvanced uint32 = 200
	DetailExpert   uint32 = 300
	DetailWizard   uint32 = 400
)

// NoInstances is the NumInstances value of an object with a single global counter block.
const NoInstances int32 = -1

// Wire sizes of the structures.
const (
	ObjectTypeSize        = 64
	CounterDefinitionSize = 40
	CounterBlockSize      = 4
)

// CounterType is the PERF_COUNTER_DEFINITION.CounterType bit field.
type CounterType uint32

// Size returns the size field (one of the Size* constants).
func (t CounterType) Size() uint32 { return uint32(t) & maskSize }

// Usage returns the usage field (one of the Type* constants).
func (t CounterType) Usage() uint32 { return uint32(t) & maskType }

// SubType returns the subtype bits.
func (t CounterType) SubType() uint32 { return uint32(t) & maskSubType }

// Well-known counter types used by the provider.
const (
	// CounterTypeUnicodeText is PERF_SIZE_VARIABLE_LEN | PERF_TYPE_TEXT | PERF_TEXT_UNICODE.
	CounterTypeUnicodeText = CounterType(SizeVariableLen | TypeText | TextUnicode)
	// CounterTypeDword is PERF_SIZE_DWORD | PERF_TYPE_NUMBER.
	CounterTypeDword = CounterType(SizeDword | TypeNumber)
)

// ObjectType mirrors PERF_OBJECT_TYPE.
type ObjectType struct {
	TotalByteLength      uint32
	DefinitionLength     uint32
	HeaderLength         uint32
	ObjectNameTitleIndex uint32
	ObjectNameTitle      uint32
	ObjectHelpTitleIndex uint32
	ObjectHelpTitle      uint32
	DetailLevel          uint32
	NumCounters          uint32
	DefaultCounter       int32
	NumInstances         int32
	CodePage             uint32
	PerfTime             int64
	PerfFreq             int64
}

// CounterDefinition mirrors PERF_COUNTER_DEFINITION.
type CounterDefinition struct {
	ByteLength            uint32
	CounterNameTitleIndex uint32
	CounterNameTitle      uint32
	CounterHelpTitleIndex uint32
	CounterHelpTitle      uint32
	DefaultScale          int32
	DetailLevel           uint32
	CounterType           CounterType
	CounterSize           uint32
	// CounterOffset is relative to the start of the counter block, header included.
	CounterOffset uint32
}

// PayloadOffset returns the counter offset relative to the first byte after the
// counter block header.
func (c CounterDefinition) PayloadOffset() uint32 {
	return c.CounterOffset - CounterBlockSize
}

// CounterBlock mirrors PERF_COUNTER_BLOCK.
type CounterBlock struct {
	// ByteLength covers the header and every counter value.
	ByteLength uint32
}

// PayloadLength returns the number of value bytes following the header.
func (b CounterBlock) PayloadLength() uint32 {
	return b.ByteLength - CounterBlockSize
}

// RoundUp8 rounds v up to the next multiple of 8. Aligned values are returned unchanged.
func RoundUp8(v uint32) uint32 {
	return (v + 7) &^ 7
}
