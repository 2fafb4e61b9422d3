package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitset(t *testing.T) {
	b := newBitset(70)
	assert.False(t, b.all())

	for i := 0; i < 70; i++ {
		if i != 64 {
			b.set(i)
		}
	}
	assert.False(t, b.all())
	assert.False(t, b.has(64))

	b.set(64)
	assert.True(t, b.has(64))
	assert.True(t, b.all())

	assert.False(t, newBitset(0).all())
}
