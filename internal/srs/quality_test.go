package srs

import "testing"

func TestRateIncorrectScalesWithHints(t *testing.T) {
	rater := NewRater(0)
	cases := []struct {
		name  string
		hints int32
		want  int32
	}{
		{"no hints", 0, 2},
		{"one hint", 1, 1},
		{"two hints", 2, 1},
		{"many hints", 3, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := rater.Rate(false, tc.hints, 3000, 5000)
			if got != tc.want {
				t.Errorf("Rate(false, %d, ...) = %d, want %d", tc.hints, got, tc.want)
			}
		})
	}
}

func TestRateCorrect(t *testing.T) {
	rater := NewRater(1.5)
	cases := []struct {
		name     string
		hints    int32
		response int32
		expected int32
		want     int32
	}{
		{"fast and clean", 0, 2000, 5000, 5},
		{"hinted", 1, 2000, 5000, 4},
		{"slow", 0, 8000, 5000, 4},
		{"slow and hinted floors at three", 2, 20000, 5000, 3},
		{"at the slow boundary", 0, 7500, 5000, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := rater.Rate(true, tc.hints, tc.response, tc.expected)
			if got != tc.want {
				t.Errorf("Rate(true, %d, %d, %d) = %d, want %d", tc.hints, tc.response, tc.expected, got, tc.want)
			}
		})
	}
}

func TestRateClampsMalformedInputs(t *testing.T) {
	rater := NewRater(1.5)
	if got := rater.Rate(true, -3, -100, -1); got != 5 {
		t.Errorf("negative inputs should clamp to zero, got quality %d", got)
	}
	if got := rater.Rate(false, -1, -100, 0); got != 2 {
		t.Errorf("negative hints on incorrect answer should rate 2, got %d", got)
	}
}

func TestRateUsesDefaultExpectedTime(t *testing.T) {
	rater := NewRater(1.5)
	// 7500ms = 1.5 x the 5000ms default, the last on-time response.
	if got := rater.Rate(true, 0, 7500, 0); got != 5 {
		t.Errorf("expected default expected time to apply, got quality %d", got)
	}
	if got := rater.Rate(true, 0, 7501, 0); got != 4 {
		t.Errorf("expected slowness deduction past default threshold, got quality %d", got)
	}
}
