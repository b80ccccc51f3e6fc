package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustBatchSize(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		headroom  float64
		min, max  int
		remaining int
		want      int
	}{
		{"neutral headroom keeps requested", 50, 0.5, 10, 200, 1000, 50},
		{"tight headroom halves", 50, 0.2, 10, 200, 1000, 25},
		{"generous headroom grows", 50, 0.8, 10, 200, 1000, 75},
		{"growth clamps to max", 160, 0.9, 10, 200, 1000, 200},
		{"shrink clamps to min", 30, 0.1, 20, 200, 1000, 20},
		{"never exceeds remaining", 50, 0.5, 10, 200, 7, 7},
		{"remaining zero yields zero", 50, 0.5, 10, 200, 0, 0},
		{"tiny remaining beats min", 50, 0.1, 10, 200, 3, 3},
		{"exhausted headroom still moves one item", 1, 0.0, 0, 0, 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdjustBatchSize(tt.requested, tt.headroom, tt.min, tt.max, tt.remaining)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryHeadroom(t *testing.T) {
	assert.Equal(t, 0.5, memoryHeadroom(0), "no ceiling means neutral headroom")
	assert.Equal(t, 0.0, memoryHeadroom(1), "a one byte ceiling is always exhausted")
	assert.Greater(t, memoryHeadroom(1<<62), 0.9, "an enormous ceiling leaves almost all headroom")
}
