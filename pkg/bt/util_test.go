package bt

import "testing"

func TestCeil(t *testing.T) {
	tt := []struct {
		a, b     int64
		expected int64
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{92063, 32768, 3},
	}

	for _, tc := range tt {
		if got := Ceil(tc.a, tc.b); got != tc.expected {
			t.Errorf("Ceil(%d, %d): expected %d got %d", tc.a, tc.b, tc.expected, got)
		}
	}
}
