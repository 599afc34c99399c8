package rlimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func uptr(v uint64) *uint64 { return &v }

func TestLimits_Empty(t *testing.T) {
	assert.True(t, Limits{}.Empty())
	assert.False(t, Limits{CPUSeconds: uptr(1)}.Empty())
	assert.False(t, Limits{MemoryBytes: uptr(1 << 20)}.Empty())
}

func TestApply_NoLimitsIsNoop(t *testing.T) {
	// Must never touch the process or fail when nothing was requested,
	// even on platforms without rlimit support.
	assert.Nil(t, Apply(Limits{}))
}
