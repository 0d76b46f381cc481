package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type buffer struct {
	data  []byte
	reset int
}

func (b *buffer) Reset() {
	clear(b.data)
	b.reset++
}

func TestPool_GetBuildsWhenEmpty(t *testing.T) {
	var built int
	p := New(func() *buffer {
		built++
		return &buffer{data: make([]byte, 8)}
	})

	b := p.Get()
	assert.NotNil(t, b)
	assert.Len(t, b.data, 8)
	assert.Equal(t, 1, built)
}

func TestPool_PutResets(t *testing.T) {
	p := New(func() *buffer { return &buffer{} })

	b := &buffer{data: []byte{1, 2, 3}}
	p.Put(b)

	assert.Equal(t, 1, b.reset)
	assert.Equal(t, []byte{0, 0, 0}, b.data)

	// whatever Get returns is usable, pooled or not
	got := p.Get()
	assert.NotNil(t, got)
	for _, v := range got.data {
		assert.Zero(t, v)
	}
}
