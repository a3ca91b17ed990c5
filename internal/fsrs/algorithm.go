package fsrs

import "math"

// Forgetting-curve formulas. Weight indices follow the 19-entry
// contract documented on WeightCount:
//
//	w[0..3]   initial stability per rating
//	w[4]      baseline difficulty (mean-reversion target)
//	w[5]      initial difficulty rating offset
//	w[6]      per-review difficulty rating offset
//	w[7]      mean-reversion strength
//	w[8..10]  recall stability growth terms
//	w[11..14] lapse stability terms
//	w[15]     hard penalty
//	w[16]     easy bonus
//	w[17..18] reserved by the published vector, unused here

// initStability returns S0(r) = max(w[r-1], 0.1) for a card's first
// review.
func initStability(w Weights, r Rating) float64 {
	return math.Max(w[r-1], 0.1)
}

// initDifficulty returns D0(r) = clamp(w[4] - (r-3)*w[5], 1, 10) for a
// card's first review.
func initDifficulty(w Weights, r Rating) float64 {
	return clampDifficulty(w[4] - float64(r-3)*w[5])
}

// meanReversion pulls current back toward target with strength w[7],
// preventing difficulty from drifting to the extremes over many
// reviews.
func meanReversion(w Weights, target, current float64) float64 {
	return w[7]*target + (1-w[7])*current
}

// nextDifficulty updates a reviewed card's difficulty:
// D' = clamp(meanReversion(w[4], D - w[6]*(r-3)), 1, 10).
func nextDifficulty(w Weights, difficulty float64, r Rating) float64 {
	shifted := difficulty - w[6]*float64(r-3)
	return clampDifficulty(meanReversion(w, w[4], shifted))
}

// forgettingCurve returns R(t,S) = (1 + factor*t/S)^decay, the assumed
// probability of recall after t elapsed days at stability S.
func forgettingCurve(elapsedDays, stability float64) float64 {
	return math.Pow(1+factor*elapsedDays/stability, decay)
}

// recallStability grows stability after a successful review
// (rating != Again). retr is the retrievability at review time.
func recallStability(w Weights, difficulty, stability, retr float64, r Rating) float64 {
	hardPenalty := 1.0
	if r == Hard {
		hardPenalty = w[15]
	}
	easyBonus := 1.0
	if r == Easy {
		easyBonus = w[16]
	}
	return stability * (math.Exp(w[8])*
		(11-difficulty)*
		math.Pow(stability, -w[9])*
		(math.Exp(w[10]*(1-retr))-1)*
		hardPenalty*easyBonus + 1)
}

// forgetStability computes the post-lapse stability (rating = Again).
func forgetStability(w Weights, difficulty, stability, retr float64) float64 {
	return w[11] *
		math.Pow(difficulty, -w[12]) *
		(math.Pow(stability+1, w[13]) - 1) *
		math.Exp(w[14]*(1-retr))
}

// nextInterval converts a stability into whole scheduled days:
// round((S/factor) * (retention^(1/decay) - 1)), clamped to
// [1, maximumInterval]. At the default 0.9 retention this reduces to
// round(S).
func nextInterval(stability, requestRetention, maximumInterval float64) float64 {
	ivl := math.Round(stability / factor * (math.Pow(requestRetention, 1/decay) - 1))
	if ivl < 1 {
		return 1
	}
	if ivl > maximumInterval {
		return maximumInterval
	}
	return ivl
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}
