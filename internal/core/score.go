package core

const (
	scoreBlock     = 10
	minBarFraction = 0.05
)

// QuantizeScore rounds a 0..100 analysis score to the nearest multiple of 10
// for display. Halves round up: 5 -> 10, 95 -> 100.
func QuantizeScore(rawScore int) int {
	return ((rawScore + scoreBlock/2) / scoreBlock) * scoreBlock
}

// BarHeight maps a score to the [0.05, 1.0] fraction used for chart bars.
func BarHeight(score int) float64 {
	h := float64(clampScore(score)) / 100
	if h < minBarFraction {
		return minBarFraction
	}
	return h
}

// DayBand is the color band of a single day's score.
func DayBand(score int) string {
	switch s := clampScore(score); {
	case s < 40:
		return "low"
	case s < 70:
		return "medium"
	default:
		return "high"
	}
}

// WeekBand is the color band of a weekly average (100 split in thirds).
func WeekBand(avg int) string {
	switch {
	case avg < 33:
		return "low"
	case avg < 67:
		return "medium"
	default:
		return "high"
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
