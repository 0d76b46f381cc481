package perf

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrTruncated            = errors.New("perf: truncated data")
	ErrBadSize              = errors.New("perf: counter size does not match its type")
	ErrStringFormat         = errors.New("perf: malformed counter text")
	ErrUnknownType          = errors.New("perf: unknown counter type")
	ErrInstancesUnsupported = errors.New("perf: multi-instance objects are not supported")
	ErrBadLength            = errors.New("perf: inconsistent object lengths")
)

// Object is a decoded PERF_OBJECT_TYPE together with its counter definitions and the
// raw counter block (header included).
type Object struct {
	Header   ObjectType
	Counters []CounterDefinition
	Block    CounterBlock
	Data     []byte
}

// ValueKind tells which field of Value is meaningful.
type ValueKind int

const (
	KindDword ValueKind = iota
	KindLarge
	KindText
	KindZero
)

func (k ValueKind) String() string {
	switch k {
	case KindDword:
		return "dword"
	case KindLarge:
		return "large"
	case KindText:
		return "text"
	case KindZero:
		return "zero"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is one decoded counter value.
type Value struct {
	Kind ValueKind
	Int  uint64
	Text string
}

// Any returns the value as uint32, uint64, string or nil depending on its kind.
func (v Value) Any() any {
	switch v.Kind {
	case KindDword:
		return uint32(v.Int)
	case KindLarge:
		return v.Int
	case KindText:
		return v.Text
	default:
		return nil
	}
}

// DecodeObjectType reads a PERF_OBJECT_TYPE header from the start of b.
func DecodeObjectType(b []byte) (ObjectType, error) {
	if len(b) < ObjectTypeSize {
		return ObjectType{}, ErrTruncated
	}
	le := binary.LittleEndian
	return ObjectType{
		TotalByteLength:      le.Uint32(b[0:]),
		DefinitionLength:     le.Uint32(b[4:]),
		HeaderLength:         le.Uint32(b[8:]),
		ObjectNameTitleIndex: le.Uint32(b[12:]),
		ObjectNameTitle:      le.Uint32(b[16:]),
		ObjectHelpTitleIndex: le.Uint32(b[20:]),
		ObjectHelpTitle:      le.Uint32(b[24:]),
		DetailLevel:          le.Uint32(b[28:]),
		NumCounters:          le.Uint32(b[32:]),
		DefaultCounter:       int32(le.Uint32(b[36:])),
		NumInstances:         int32(le.Uint32(b[40:])),
		CodePage:             le.Uint32(b[44:]),
		PerfTime:             int64(le.Uint64(b[48:])),
		PerfFreq:             int64(le.Uint64(b[56:])),
	}, nil
}

// DecodeCounterDefinition reads a PERF_COUNTER_DEFINITION from the start of b.
func DecodeCounterDefinition(b []byte) (CounterDefinition, error) {
	if len(b) < CounterDefinitionSize {
		return CounterDefinition{}, ErrTruncated
	}
	le := binary.LittleEndian
	return CounterDefinition{
		ByteLength:            le.Uint32(b[0:]),
		CounterNameTitleIndex: le.Uint32(b[4:]),
		CounterNameTitle:      le.Uint32(b[8:]),
		CounterHelpTitleIndex: le.Uint32(b[12:]),
		CounterHelpTitle:      le.Uint32(b[16:]),
		DefaultScale:          int32(le.Uint32(b[20:])),
		DetailLevel:           le.Uint32(b[24:]),
		CounterType:           CounterType(le.Uint32(b[28:])),
		CounterSize:           le.Uint32(b[32:]),
		CounterOffset:         le.Uint32(b[36:]),
	}, nil
}

// DecodeObject parses one object from the start of b and returns the bytes following
// its TotalByteLength.
//
// Counter definitions start at HeaderLength and are each ByteLength long; the counter
// block starts at DefinitionLength.
func DecodeObject(b []byte) (Object, []byte, error) {
	hdr, err := DecodeObjectType(b)
	if err != nil {
		return Object{}, nil, err
	}
	if uint64(hdr.TotalByteLength) > uint64(len(b)) {
		return Object{}, nil, ErrTruncated
	}
	if hdr.HeaderLength < ObjectTypeSize || hdr.DefinitionLength < hdr.HeaderLength ||
		hdr.TotalByteLength < hdr.DefinitionLength {
		return Object{}, nil, ErrBadLength
	}
	// every definition is at least CounterDefinitionSize bytes
	if uint64(hdr.NumCounters) > uint64(hdr.DefinitionLength-hdr.HeaderLength)/CounterDefinitionSize {
		return Object{}, nil, ErrBadLength
	}
	if hdr.NumInstances != NoInstances {
		return Object{}, nil, ErrInstancesUnsupported
	}
	obj := b[:hdr.TotalByteLength]

	counters := make([]CounterDefinition, 0, hdr.NumCounters)
	off := hdr.HeaderLength
	for i := uint32(0); i < hdr.NumCounters; i++ {
		if off >= hdr.DefinitionLength {
			return Object{}, nil, ErrBadLength
		}
		def, err := DecodeCounterDefinition(obj[off:hdr.DefinitionLength])
		if err != nil {
			return Object{}, nil, err
		}
		if def.ByteLength < CounterDefinitionSize {
			return Object{}, nil, ErrBadLength
		}
		counters = append(counters, def)
		off += def.ByteLength
	}

	rest := obj[hdr.DefinitionLength:]
	if len(rest) < CounterBlockSize {
		return Object{}, nil, ErrTruncated
	}
	block := CounterBlock{ByteLength: binary.LittleEndian.Uint32(rest)}
	if block.ByteLength < CounterBlockSize || uint64(block.ByteLength) > uint64(len(rest)) {
		return Object{}, nil, ErrTruncated
	}

	return Object{
		Header:   hdr,
		Counters: counters,
		Block:    block,
		Data:     rest[:block.ByteLength],
	}, b[hdr.TotalByteLength:], nil
}

// DecodeObjects parses n consecutive objects.
func DecodeObjects(b []byte, n int) ([]Object, error) {
	objects := make([]Object, 0, n)
	for i := 0; i < n; i++ {
		obj, rest, err := DecodeObject(b)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		objects = append(objects, obj)
		b = rest
	}
	return objects, nil
}

// Raw returns the bytes of counter i inside the counter block.
func (o Object) Raw(i int) ([]byte, error) {
	if i < 0 || i >= len(o.Counters) {
		return nil, fmt.Errorf("perf: counter %d out of range", i)
	}
	def := o.Counters[i]
	end := uint64(def.CounterOffset) + uint64(def.CounterSize)
	if end > uint64(len(o.Data)) {
		return nil, ErrBadSize
	}
	return o.Data[def.CounterOffset:end], nil
}

// Value decodes counter i according to its CounterType.
func (o Object) Value(i int) (Value, error) {
	raw, err := o.Raw(i)
	if err != nil {
		return Value{}, err
	}
	typ := o.Counters[i].CounterType
	switch typ.Size() {
	case SizeDword:
		if len(raw) != 4 {
			return Value{}, ErrBadSize
		}
		return Value{Kind: KindDword, Int: uint64(binary.LittleEndian.Uint32(raw))}, nil
	case SizeLarge:
		if len(raw) != 8 {
			return Value{}, ErrBadSize
		}
		return Value{Kind: KindLarge, Int: binary.LittleEndian.Uint64(raw)}, nil
	case SizeZero:
		return Value{Kind: KindZero}, nil
	case SizeVariableLen:
		if typ.Usage() != TypeText {
			return Value{}, ErrUnknownType
		}
		var text string
		if typ.SubType() == TextASCII {
			text, err = DecodeASCIIText(raw)
		} else {
			text, err = DecodeUnicodeText(raw)
		}
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindText, Text: text}, nil
	default:
		return Value{}, ErrUnknownType
	}
}

// Find returns the index of the counter with the given name index.
func (o Object) Find(nameIndex uint32) (int, bool) {
	for i, c := range o.Counters {
		if c.CounterNameTitleIndex == nameIndex {
			return i, true
		}
	}
	return -1, false
}
