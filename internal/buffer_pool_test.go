package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferPool(t *testing.T) {
	p := NewBufferPool(16)

	buf := p.Get()
	require.NotNil(t, buf)
	assert.Len(t, *buf, 16)

	copy(*buf, "BEGIN\nLIST\n")
	p.Put(buf)

	again := p.Get()
	assert.Len(t, *again, 16)
}

func TestBufferPoolDropsForeignSizes(t *testing.T) {
	p := NewBufferPool(16)

	short := make([]byte, 4)
	p.Put(&short)
	p.Put(nil)

	for range 10 {
		assert.Len(t, *p.Get(), 16)
	}
}
