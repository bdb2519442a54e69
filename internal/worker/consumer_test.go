package worker

import "testing"

func TestCalculateBackoff(t *testing.T) {
	cases := []struct {
		retryCount int
		want       int32
	}{
		{1, 20},
		{2, 40},
		{3, 80},
		{8, 2560},
		{9, 3600},  // capped at one hour
		{40, 3600}, // shift overflow also hits the cap
	}
	for _, c := range cases {
		if got := CalculateBackoff(c.retryCount); got != c.want {
			t.Fatalf("CalculateBackoff(%d) = %d, want %d", c.retryCount, got, c.want)
		}
	}
}
