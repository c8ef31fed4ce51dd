package pricing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned for malformed market data (odds at or below
// 1.0, non-positive runner counts). Check with errors.Is.
var ErrInvalidInput = errors.New("pricing: invalid input")

// divisorRules maps field size to the divisor used to rescale win odds
// into a fair place price. Fields outside 8..14 do not qualify.
var divisorRules = map[int]int{
	8:  5,
	9:  4,
	10: 4,
	11: 4,
	12: 4,
	13: 4,
	14: 4,
}

// safetyMargin inflates the profit part of the fair price by 10% to
// absorb commission and estimation error.
const safetyMargin = 1.10

// Decision is the outcome of evaluating one runner. FairPlace, MinPlace
// and Edge are rounded to 2 decimals for display; the favorable check is
// made on unrounded values.
type Decision struct {
	Qualifies bool // field size has a divisor
	Divisor   int
	FairPlace float64
	MinPlace  float64
	Edge      float64
	Favorable bool
}

// Divisor returns the divisor for a field size, or false when the race
// does not qualify.
func Divisor(runnerCount int) (int, bool) {
	d, ok := divisorRules[runnerCount]
	return d, ok
}

// Evaluate decides whether the available place price beats the minimum
// acceptable price implied by the win lay price.
//
// Fair place:    ((winLay - 1) / divisor) + 1
// Minimum place: 1 + 1.10 * (fair - 1)
// Favorable:     placeBack >= minimum
//
// A runner count outside the divisor table is a normal non-qualifying
// outcome, not an error. Stateless and safe for concurrent use.
func Evaluate(runnerCount int, winLayPrice, placeBackPrice float64) (Decision, error) {
	if runnerCount <= 0 {
		return Decision{}, fmt.Errorf("%w: runner count %d", ErrInvalidInput, runnerCount)
	}
	if winLayPrice <= 1.0 {
		return Decision{}, fmt.Errorf("%w: win lay price %.2f", ErrInvalidInput, winLayPrice)
	}
	if placeBackPrice <= 1.0 {
		return Decision{}, fmt.Errorf("%w: place back price %.2f", ErrInvalidInput, placeBackPrice)
	}

	divisor, ok := divisorRules[runnerCount]
	if !ok {
		return Decision{}, nil
	}

	fair := ((winLayPrice - 1) / float64(divisor)) + 1
	min := 1 + safetyMargin*(fair-1)
	favorable := placeBackPrice >= min

	d := Decision{
		Qualifies: true,
		Divisor:   divisor,
		FairPlace: round2(fair),
		MinPlace:  round2(min),
		Favorable: favorable,
	}
	if favorable {
		d.Edge = round2(placeBackPrice - min)
	}
	return d, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
