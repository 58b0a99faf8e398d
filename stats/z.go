package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ZVal returns the two-tailed z value for a confidence level given in
// percent.
func ZVal(confidence float64) float64 {
	dist := distuv.Normal{Mu: 0, Sigma: 1}
	return dist.Quantile((1 + confidence/100) / 2)
}

// WinRate returns the score rate (draws count half) of a player over
// games, and the half-width of its normal-approximation interval at the
// given confidence in percent.
func WinRate(wins, draws float64, games int, confidence float64) (rate, margin float64) {
	if games == 0 {
		return 0, 0
	}
	n := float64(games)
	rate = (wins + draws/2) / n
	margin = ZVal(confidence) * math.Sqrt(rate*(1-rate)/n)
	return rate, margin
}
