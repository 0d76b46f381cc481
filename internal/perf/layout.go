package perf

// Field order below is the wire order. Each method writes exactly the struct's wire size.

// WriteTo appends the PERF_OBJECT_TYPE header.
func (o *ObjectType) WriteTo(w *Writer) error {
	if w.Available() < ObjectTypeSize {
		return ErrShortBuffer
	}
	for _, v := range []uint32{
		o.TotalByteLength,
		o.DefinitionLength,
		o.HeaderLength,
		o.ObjectNameTitleIndex,
		o.ObjectNameTitle,
		o.ObjectHelpTitleIndex,
		o.ObjectHelpTitle,
		o.DetailLevel,
		o.NumCounters,
		uint32(o.DefaultCounter),
		uint32(o.NumInstances),
		o.CodePage,
	} {
		if err := w.PutUint32(v); err != nil {
			return err
		}
	}
	if err := w.PutInt64(o.PerfTime); err != nil {
		return err
	}
	return w.PutInt64(o.PerfFreq)
}

// WriteTo appends the PERF_COUNTER_DEFINITION.
func (c *CounterDefinition) WriteTo(w *Writer) error {
	if w.Available() < CounterDefinitionSize {
		return ErrShortBuffer
	}
	for _, v := range []uint32{
		c.ByteLength,
		c.CounterNameTitleIndex,
		c.CounterNameTitle,
		c.CounterHelpTitleIndex,
		c.CounterHelpTitle,
		uint32(c.DefaultScale),
		c.DetailLevel,
		uint32(c.CounterType),
		c.CounterSize,
		c.CounterOffset,
	} {
		if err := w.PutUint32(v); err != nil {
			return err
		}
	}
	return nil
}

// WriteTo appends the PERF_COUNTER_BLOCK header.
func (b *CounterBlock) WriteTo(w *Writer) error {
	return w.PutUint32(b.ByteLength)
}
