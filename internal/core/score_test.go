package core

import "testing"

func TestQuantizeScore(t *testing.T) {
	tests := map[int]int{0: 0, 4: 0, 5: 10, 94: 90, 95: 100, 100: 100, 55: 60}
	for in, want := range tests {
		if got := QuantizeScore(in); got != want {
			t.Errorf("QuantizeScore(%d) = %d, want %d", in, got, want)
		}
	}
	for x := 0; x <= 100; x++ {
		q := QuantizeScore(x)
		if QuantizeScore(q) != q {
			t.Fatalf("QuantizeScore not idempotent at %d", x)
		}
	}
}

func TestBarHeight(t *testing.T) {
	tests := []struct {
		score int
		want  float64
	}{
		{score: 0, want: 0.05},
		{score: -20, want: 0.05},
		{score: 3, want: 0.05},
		{score: 50, want: 0.5},
		{score: 100, want: 1},
		{score: 180, want: 1},
	}
	for _, tt := range tests {
		if got := BarHeight(tt.score); got != tt.want {
			t.Errorf("BarHeight(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestBands(t *testing.T) {
	if DayBand(39) != "low" || DayBand(40) != "medium" || DayBand(69) != "medium" || DayBand(70) != "high" {
		t.Errorf("DayBand boundaries wrong")
	}
	if WeekBand(32) != "low" || WeekBand(33) != "medium" || WeekBand(66) != "medium" || WeekBand(67) != "high" {
		t.Errorf("WeekBand boundaries wrong")
	}
}
