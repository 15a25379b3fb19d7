package testutil

import (
	"math"
	"testing"
)

func TestNearlyEqual(t *testing.T) {
	tests := []struct {
		a, b, eps float64
		want      bool
	}{
		{1, 1 + 1e-13, 1e-12, true},
		{1, 1.1, 1e-3, false},
		{math.NaN(), math.NaN(), 0, true},
		{math.NaN(), 1, 1, false},
		{math.Inf(1), math.Inf(1), 0, true},
		{math.Inf(1), math.Inf(-1), 10, false},
	}
	for _, tt := range tests {
		if got := NearlyEqual(tt.a, tt.b, tt.eps); got != tt.want {
			t.Errorf("NearlyEqual(%v, %v, %v) = %v, want %v", tt.a, tt.b, tt.eps, got, tt.want)
		}
	}
}
