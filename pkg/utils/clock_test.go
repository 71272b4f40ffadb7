package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock(t *testing.T) {
	clock := NewRealClock()
	start := clock.Now()
	assert.GreaterOrEqual(t, clock.Since(start), time.Duration(0))
}

func TestFixedClock_Advances(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &FixedClock{Current: base, Step: 5 * time.Millisecond}

	first := clock.Now()
	assert.Equal(t, base, first)
	assert.Equal(t, 5*time.Millisecond, clock.Since(first))

	clock.Now()
	assert.Equal(t, 10*time.Millisecond, clock.Since(first))
}
