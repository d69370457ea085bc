// Package indicators computes an IndicatorSnapshot and the 42 rule-based
// Trigger Results from a symbol's recent price bars. Pure function: no
// I/O, no clock dependence, deterministic given the same bars.
package indicators

import (
	"github.com/aristath/trading-council/internal/domain"
	"github.com/aristath/trading-council/pkg/formulas"
	"github.com/markcheno/go-talib"
)

const minBars = 20

// Compute builds the IndicatorSnapshot for symbol from bars (oldest
// first). Returns a zero snapshot and false if bars has fewer than 20
// entries, per the engine's failure policy.
func Compute(symbol string, bars []domain.PriceBar) (domain.IndicatorSnapshot, bool) {
	if len(bars) < minBars {
		return domain.IndicatorSnapshot{}, false
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = float64(b.Volume)
	}

	snap := domain.IndicatorSnapshot{Symbol: symbol, Bars: len(bars), CurrentPrice: closes[len(closes)-1]}

	snap.MA5 = lastOrZero(talib.Sma(closes, minInt(5, len(closes))))
	snap.MA20 = lastOrZero(talib.Sma(closes, minInt(20, len(closes))))
	snap.MA60 = lastOrZero(talib.Sma(closes, minInt(60, len(closes))))
	snap.MA120 = lastOrZero(talib.Sma(closes, minInt(120, len(closes))))

	tradingValues := make([]float64, len(closes))
	for i := range closes {
		tradingValues[i] = closes[i] * volumes[i]
	}
	snap.TradingValue5 = formulas.Mean(tail(tradingValues, 5))
	snap.TradingValue20 = formulas.Mean(tail(tradingValues, 20))
	if snap.TradingValue20 > 0 {
		snap.TVRatio5to20 = snap.TradingValue5 / snap.TradingValue20
	}
	snap.Volume5 = formulas.Mean(tail(volumes, 5))
	snap.Volume20 = formulas.Mean(tail(volumes, 20))
	if snap.Volume20 > 0 {
		snap.VolumeRatio5to20 = snap.Volume5 / snap.Volume20
	}
	snap.VolumeSpike = tradingValues[len(tradingValues)-1] >= 10*snap.TradingValue20

	obv := talib.Obv(closes, volumes)
	snap.OBV5 = lastOrZero(tail(obv, 5))
	snap.OBV10 = lastOrZero(tail(obv, 10))
	snap.OBV23 = lastOrZero(tail(obv, 23))
	snap.OBV56 = lastOrZero(tail(obv, 56))

	if a := formulas.CalculateAVWAP(closes, volumes, minInt(20, len(closes))); a != nil {
		snap.AVWAP20 = *a
		snap.AVWAP20PctDev = formulas.CalculatePctDeviation(snap.CurrentPrice, *a)
	}
	if a := formulas.CalculateAVWAP(closes, volumes, minInt(60, len(closes))); a != nil {
		snap.AVWAP60 = *a
		snap.AVWAP60PctDev = formulas.CalculatePctDeviation(snap.CurrentPrice, *a)
	}

	snap.CMF = chaikinMoneyFlow(highs, lows, closes, volumes, 20)
	snap.CLV = closeLocationValue(highs, lows, closes)

	adx := talib.Adx(highs, lows, closes, 14)
	plusDI := talib.PlusDI(highs, lows, closes, 14)
	minusDI := talib.MinusDI(highs, lows, closes, 14)
	snap.ADX = lastOrZero(adx)
	snap.PlusDI = lastOrZero(plusDI)
	snap.MinusDI = lastOrZero(minusDI)

	if bb := formulas.CalculateBollingerBands(closes, minInt(20, len(closes)), 2); bb != nil {
		snap.BollUpper, snap.BollMiddle, snap.BollLower = bb.Upper, bb.Middle, bb.Lower
		if bb.Middle != 0 {
			snap.BollWidth = (bb.Upper - bb.Lower) / bb.Middle
		}
	}
	snap.BBWP = bollWidthPercentile(closes)
	snap.TTMSqueeze = ttmSqueeze(closes, highs, lows, snap.BollUpper, snap.BollLower)

	atr := talib.Atr(highs, lows, closes, 14)
	snap.ATR = lastOrZero(atr)
	if snap.CurrentPrice != 0 {
		snap.ATRPct = snap.ATR / snap.CurrentPrice * 100
	}

	snap.MFI = lastOrZero(talib.Mfi(highs, lows, closes, volumes, 14))

	snap.UDVR60 = upDownVolumeRatio(closes, volumes, minInt(60, len(closes)))

	snap.RVOL20 = relativeVolume(volumes, 20)
	snap.RVOL50 = relativeVolume(volumes, 50)

	snap.High52Week = maxOf(tail(highs, minInt(252, len(highs))))
	snap.Low52Week = minOf(tail(lows, minInt(252, len(lows))))
	if rng := snap.High52Week - snap.Low52Week; rng > 0 {
		snap.Position52Week = (snap.CurrentPrice - snap.Low52Week) / rng * 100
	}

	return snap, true
}

func lastOrZero(xs []float64) float64 {
	for i := len(xs) - 1; i >= 0; i-- {
		if !isNaN(xs[i]) {
			return xs[i]
		}
	}
	return 0
}

func isNaN(f float64) bool { return f != f }

func tail(xs []float64, n int) []float64 {
	if n > len(xs) {
		n = len(xs)
	}
	return xs[len(xs)-n:]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, v := range xs {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, v := range xs {
		if v < m {
			m = v
		}
	}
	return m
}

func chaikinMoneyFlow(highs, lows, closes, volumes []float64, period int) float64 {
	n := minInt(period, len(closes))
	if n == 0 {
		return 0
	}
	start := len(closes) - n
	var mfvSum, volSum float64
	for i := start; i < len(closes); i++ {
		rng := highs[i] - lows[i]
		if rng == 0 {
			continue
		}
		mfm := ((closes[i] - lows[i]) - (highs[i] - closes[i])) / rng
		mfvSum += mfm * volumes[i]
		volSum += volumes[i]
	}
	if volSum == 0 {
		return 0
	}
	return mfvSum / volSum
}

func closeLocationValue(highs, lows, closes []float64) float64 {
	i := len(closes) - 1
	rng := highs[i] - lows[i]
	if rng == 0 {
		return 0
	}
	return ((closes[i] - lows[i]) - (highs[i] - closes[i])) / rng
}

func bollWidthPercentile(closes []float64) float64 {
	if len(closes) < 40 {
		return 50
	}
	widths := make([]float64, 0, len(closes)-20)
	for i := 20; i <= len(closes); i++ {
		window := closes[:i]
		bb := formulas.CalculateBollingerBands(window, 20, 2)
		if bb == nil || bb.Middle == 0 {
			continue
		}
		widths = append(widths, (bb.Upper-bb.Lower)/bb.Middle)
	}
	return formulas.PercentileRank(widths)
}

func ttmSqueeze(closes, highs, lows []float64, bollUpper, bollLower float64) bool {
	if len(closes) < 20 {
		return false
	}
	atr := lastOrZero(talib.Atr(highs, lows, closes, 20))
	mid := lastOrZero(talib.Sma(closes, 20))
	keltnerUpper := mid + 1.5*atr
	keltnerLower := mid - 1.5*atr
	return bollUpper < keltnerUpper && bollLower > keltnerLower
}

func upDownVolumeRatio(closes, volumes []float64, period int) float64 {
	n := minInt(period, len(closes))
	if n < 2 {
		return 1
	}
	start := len(closes) - n
	var up, down float64
	for i := start + 1; i < len(closes); i++ {
		if closes[i] >= closes[i-1] {
			up += volumes[i]
		} else {
			down += volumes[i]
		}
	}
	if down == 0 {
		if up == 0 {
			return 1
		}
		return up
	}
	return up / down
}

func relativeVolume(volumes []float64, period int) float64 {
	n := minInt(period, len(volumes))
	if n == 0 {
		return 1
	}
	avg := formulas.Mean(tail(volumes, n))
	if avg == 0 {
		return 1
	}
	return volumes[len(volumes)-1] / avg
}
