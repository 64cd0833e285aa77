package cpuinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineSizeIsPlausible(t *testing.T) {
	n := LineSize()
	assert.GreaterOrEqual(t, n, 32)
	assert.LessOrEqual(t, n, 256)
	assert.Zero(t, n%32, "cache line sizes are multiples of 32 bytes on every known architecture")
}
