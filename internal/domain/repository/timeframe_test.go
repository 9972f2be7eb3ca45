package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTimeframe(t *testing.T) {
	tests := []struct {
		in   string
		want Timeframe
	}{
		{"", TF1d},
		{"1h", TF1h},
		{"1d", TF1d},
		{"1w", TF1w},
		{"5m", TF1d},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTimeframe(tt.in), tt.in)
	}
}
