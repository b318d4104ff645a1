// Package indicators provides pure numeric functions over a price history
// series. Short input is a degraded result, never an error: every function
// reports validity alongside its value and callers must check it.
package indicators

import "finsight-api/pkg/market"

// DefaultRSIPeriod is the conventional RSI lookback.
const DefaultRSIPeriod = 14

// DefaultSupportResistanceWindow is the trailing window for band detection.
const DefaultSupportResistanceWindow = 90

// MovingAverage returns the arithmetic mean of the last window closes.
// ok is false (value zero) when fewer than window points exist.
func MovingAverage(closes []float64, window int) (float64, bool) {
	if window <= 0 || len(closes) < window {
		return 0, false
	}
	var sum float64
	for _, c := range closes[len(closes)-window:] {
		sum += c
	}
	return sum / float64(window), true
}

// RSI returns the latest Relative Strength Index over the supplied closes
// using a simple rolling mean of gains and losses, matching the upstream
// calculation this system replaces. ok is false until period deltas exist.
//
// The zero-loss division is handled explicitly: an all-gain window saturates
// at 100, an all-loss window reads 0, and a flat window reads 50.
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}

	var gainSum, lossSum float64
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gainSum += change
		} else {
			lossSum -= change
		}
	}

	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)

	switch {
	case avgLoss == 0 && avgGain == 0:
		return 50, true
	case avgLoss == 0:
		return 100, true
	case avgGain == 0:
		return 0, true
	default:
		rs := avgGain / avgLoss
		return 100 - (100 / (1 + rs)), true
	}
}

// Bands carries support/resistance levels with the latest close for context.
type Bands struct {
	Support    float64 // Minimum low over the window
	Resistance float64 // Maximum high over the window
	LastClose  float64
}

// SupportResistance scans the trailing window bars for the extreme high and
// low. ok is false for an empty series; a series shorter than window yields
// a partial result over the bars available.
func SupportResistance(series market.Series, window int) (Bands, bool) {
	if series.Empty() || window <= 0 {
		return Bands{}, false
	}
	tail := series.Tail(window)

	bands := Bands{
		Support:    tail.Bars[0].Low,
		Resistance: tail.Bars[0].High,
	}
	for _, bar := range tail.Bars {
		if bar.Low < bands.Support {
			bands.Support = bar.Low
		}
		if bar.High > bands.Resistance {
			bands.Resistance = bar.High
		}
	}
	last, _ := series.Latest()
	bands.LastClose = last.Close
	return bands, true
}
