package circular

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_Push(t *testing.T) {
	b := NewBuffer[int](3)
	assert.True(t, b.IsEmpty())

	for i := 0; i < 3; i++ {
		_, evicted := b.Push(i)
		assert.False(t, evicted)
	}
	assert.True(t, b.IsFull())

	old, evicted := b.Push(3)
	assert.True(t, evicted)
	assert.Equal(t, 0, old)

	tests := []struct {
		name     string
		result   int
		expected int
	}{
		{"newest", b.Newest(), 3},
		{"oldest", b.Oldest(), 1},
		{"get(1)", b.Get(1), 2},
		{"size", int(b.Size()), 3},
		{"capacity", int(b.Capacity()), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result)
		})
	}
}

func TestBuffer_Data(t *testing.T) {
	b := NewBuffer[int](5)
	for i := 0; i < 9; i++ {
		b.Push(i)
	}
	assert.Equal(t, []int{4, 5, 6, 7, 8}, b.Data())

	partial := NewBuffer[int](5)
	partial.Push(1)
	partial.Push(2)
	assert.Equal(t, []int{1, 2}, partial.Data())
}

func TestBuffer_Reset(t *testing.T) {
	b := NewBuffer[int](2)
	b.Push(1)
	b.Push(2)
	b.Reset()

	assert.True(t, b.IsEmpty())
	assert.Empty(t, b.Data())
	assert.Panics(t, func() { b.Get(0) })
}

func TestBuffer_ZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { NewBuffer[int](0) })
}
