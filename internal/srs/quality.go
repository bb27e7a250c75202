package srs

// DefaultExpectedResponseMs is assumed when the caller supplies no expected
// response time for an exercise.
const DefaultExpectedResponseMs = 5000

// DefaultSlowRatio marks a correct answer as slow once the response time
// exceeds expected time by this factor.
const DefaultSlowRatio = 1.5

// Rater converts a raw attempt outcome into a discrete 0-5 quality score.
// Quality >= 3 is treated as a pass by the scheduler, below 3 as a lapse.
type Rater struct {
	slowRatio float64
}

// NewRater builds a rater; a non-positive slowRatio falls back to the default.
func NewRater(slowRatio float64) *Rater {
	if slowRatio <= 1 {
		slowRatio = DefaultSlowRatio
	}
	return &Rater{slowRatio: slowRatio}
}

// Rate maps correctness, hint usage and latency onto the SM-2 quality scale.
// Out-of-range numeric inputs are clamped to zero rather than rejected.
func (r *Rater) Rate(correct bool, hintsUsed, responseTimeMs, expectedTimeMs int32) int32 {
	if hintsUsed < 0 {
		hintsUsed = 0
	}
	if responseTimeMs < 0 {
		responseTimeMs = 0
	}
	if expectedTimeMs <= 0 {
		expectedTimeMs = DefaultExpectedResponseMs
	}

	if !correct {
		switch {
		case hintsUsed == 0:
			return 2
		case hintsUsed <= 2:
			return 1
		default:
			return 0
		}
	}

	quality := int32(5)
	if hintsUsed > 0 {
		quality--
	}
	if float64(responseTimeMs) > float64(expectedTimeMs)*r.slowRatio {
		quality--
	}
	// A correct answer never rates below 3, however slow or hinted.
	if quality < 3 {
		quality = 3
	}
	return quality
}
