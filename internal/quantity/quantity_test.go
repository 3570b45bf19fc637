package quantity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddAvoidsFloatDrift(t *testing.T) {
	assert.Equal(t, 0.3, Add(0.1, 0.2))
	assert.Equal(t, 3.0, Add(2, 1))
}

func TestSub(t *testing.T) {
	assert.Equal(t, 0.1, Sub(0.3, 0.2))
	assert.Equal(t, -2.0, Sub(3, 5))
}

func TestDelta(t *testing.T) {
	mag, up := Delta(3, 5.5)
	assert.Equal(t, 2.5, mag)
	assert.True(t, up)

	mag, up = Delta(3, 1)
	assert.Equal(t, 2.0, mag)
	assert.False(t, up)

	mag, _ = Delta(2, 2)
	assert.Zero(t, mag)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "2", Format(2))
	assert.Equal(t, "0.25", Format(0.25))
}
