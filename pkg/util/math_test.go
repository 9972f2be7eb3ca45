package util

import (
    "math"
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
    assert.Equal(t, 3.55, Round2(3.5549))
    assert.Equal(t, -0.35, Round2(-0.351))
    assert.Equal(t, 5.0, Round2(5))
}

func TestClamp(t *testing.T) {
    assert.Equal(t, 1.0, Clamp(0.2, 1, 5))
    assert.Equal(t, 5.0, Clamp(7, 1, 5))
    assert.Equal(t, 3.3, Clamp(3.3, 1, 5))
}

func TestFinite(t *testing.T) {
    v, nan, inf := 1.0, math.NaN(), math.Inf(1)
    assert.True(t, Finite(&v))
    assert.False(t, Finite(nil))
    assert.False(t, Finite(&nan))
    assert.False(t, Finite(&inf))
}
