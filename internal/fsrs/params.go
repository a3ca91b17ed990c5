package fsrs

import "math"

// WeightCount is the length of the weight vector this engine is
// written against. The vector's length and index semantics are a
// version contract: other published formula sets (e.g. the 17-entry
// variant with a fixed constant 9) are not interchangeable with this
// one and are never auto-detected.
const WeightCount = 19

// Weights is the ordered parameter vector controlling every formula.
type Weights [WeightCount]float64

// Fixed exponent of the forgetting curve and its derived scale. With
// these values R(scheduledDays, S) = requestRetention exactly when
// requestRetention = 0.9.
const decay = -0.5

var factor = math.Pow(0.9, 1/decay) - 1

// Params configures one scheduler instance.
type Params struct {
	RequestRetention float64 // target recall probability at the scheduled interval, in (0,1)
	MaximumInterval  float64 // cap on scheduled days
	W                Weights
}

// defaultWeights is the published default 19-entry vector.
var defaultWeights = Weights{
	0.40255, 1.18385, 3.173, 15.69105,
	7.1949, 0.5345, 1.4604, 0.0046,
	1.54575, 0.1192, 1.01925, 1.9395,
	0.11, 0.29605, 2.2698, 0.2315,
	2.9898, 0.51655, 0.6621,
}

// DefaultParams returns the stock configuration: 90% target retention,
// a 100-year interval cap, and the default weight vector.
func DefaultParams() Params {
	return Params{
		RequestRetention: 0.9,
		MaximumInterval:  36500,
		W:                defaultWeights,
	}
}

// ParamsUpdate is a partial parameter set. Nil fields leave the
// corresponding live value untouched.
type ParamsUpdate struct {
	RequestRetention *float64
	MaximumInterval  *float64
	W                *Weights
}

func (p Params) validate() error {
	if p.RequestRetention <= 0 || p.RequestRetention >= 1 {
		return ErrBadRetention
	}
	if p.MaximumInterval < 1 {
		return ErrBadMaxInterval
	}
	return nil
}
