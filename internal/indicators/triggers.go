package indicators

import (
	"fmt"

	"github.com/aristath/trading-council/internal/domain"
)

// tier1 IDs carry composite-score weight 3, tier2 weight 2, everything
// else (tier3, T-23..T-42) weight 1.
var tier1 = map[string]bool{"T-01": true, "T-02": true, "T-03": true, "T-09": true, "T-14": true, "T-20": true}

func weightFor(id string, idx int) int {
	if tier1[id] {
		return 3
	}
	if idx >= 3 && idx <= 21 { // T-04..T-22, excluding tier-1 members already weighted above
		return 2
	}
	return 1
}

type triggerDef struct {
	id, name string
	eval     func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string)
}

// EvaluateTriggers runs all 42 rule-based checks against a snapshot.
func EvaluateTriggers(s domain.IndicatorSnapshot) []domain.TriggerResult {
	defs := triggerTable()
	results := make([]domain.TriggerResult, 0, len(defs))
	for _, d := range defs {
		signal, strength, score, details := d.eval(s)
		results = append(results, domain.TriggerResult{
			ID: d.id, Name: d.name, Signal: signal, Strength: strength, Score: score, Details: details,
		})
	}
	return results
}

// CompositeScore folds trigger results into the 1..100 composite score
// per the tiered weighting scheme.
func CompositeScore(results []domain.TriggerResult) int {
	var signedSum, weightSum float64
	for i, r := range results {
		w := float64(weightFor(r.ID, i))
		weightSum += 10 * w
		switch r.Signal {
		case domain.TriggerBullish:
			signedSum += float64(r.Score) * w
		case domain.TriggerBearish:
			signedSum -= float64(r.Score) * w
		}
	}
	if weightSum == 0 {
		return 50
	}
	ratio := signedSum / weightSum
	score := int(round(50 + 50*ratio))
	if score < 1 {
		score = 1
	}
	if score > 100 {
		score = 100
	}
	return score
}

func round(f float64) float64 {
	if f >= 0 {
		return float64(int(f + 0.5))
	}
	return float64(int(f - 0.5))
}

// ActionFromScore maps a composite score to a ScanAction.
func ActionFromScore(score int) domain.ScanAction {
	switch {
	case score >= 80:
		return domain.ScanActionStrongBuy
	case score >= 65:
		return domain.ScanActionBuy
	case score >= 40:
		return domain.ScanActionHold
	case score >= 25:
		return domain.ScanActionSell
	default:
		return domain.ScanActionStrongSell
	}
}

func bucket(bullish bool, v, veryStrong, strong, moderate float64) (domain.TriggerSignal, domain.TriggerStrength, int) {
	signal := domain.TriggerNeutral
	if bullish {
		signal = domain.TriggerBullish
	} else {
		signal = domain.TriggerBearish
	}
	switch {
	case v >= veryStrong:
		return signal, domain.StrengthVeryStrong, 10
	case v >= strong:
		return signal, domain.StrengthStrong, 7
	case v >= moderate:
		return signal, domain.StrengthModerate, 4
	default:
		return domain.TriggerNeutral, domain.StrengthNone, 0
	}
}

func triggerTable() []triggerDef {
	return []triggerDef{
		{"T-01", "accumulation", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.TVRatio5to20 >= 1.5 && s.TVRatio5to20 <= 3.5 {
				return domain.TriggerBullish, domain.StrengthStrong, 8, fmt.Sprintf("TV5/TV20=%.2f in accumulation band", s.TVRatio5to20)
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "no accumulation pattern"
		}},
		{"T-02", "spike", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.VolumeSpike {
				return domain.TriggerBullish, domain.StrengthVeryStrong, 10, "trading value >= 10x 20d average"
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "no spike"
		}},
		{"T-03", "volume_ratio_trend", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.VolumeRatio5to20 > 1, absf(s.VolumeRatio5to20-1), 1.2, 0.6, 0.2)
			return sig, str, sc, fmt.Sprintf("vol5/vol20=%.2f", s.VolumeRatio5to20)
		}},
		{"T-04", "ma5_above_ma20", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.MA5 > s.MA20, absf(s.MA5-s.MA20)/maxf(s.MA20, 1), 0.05, 0.02, 0.005)
			return sig, str, sc, fmt.Sprintf("MA5=%.2f MA20=%.2f", s.MA5, s.MA20)
		}},
		{"T-05", "ma20_above_ma60", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.MA20 > s.MA60, absf(s.MA20-s.MA60)/maxf(s.MA60, 1), 0.06, 0.03, 0.01)
			return sig, str, sc, fmt.Sprintf("MA20=%.2f MA60=%.2f", s.MA20, s.MA60)
		}},
		{"T-06", "ma60_above_ma120", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.MA60 > s.MA120, absf(s.MA60-s.MA120)/maxf(s.MA120, 1), 0.08, 0.04, 0.01)
			return sig, str, sc, fmt.Sprintf("MA60=%.2f MA120=%.2f", s.MA60, s.MA120)
		}},
		{"T-07", "price_above_ma20", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.CurrentPrice > s.MA20, absf(s.CurrentPrice-s.MA20)/maxf(s.MA20, 1), 0.05, 0.02, 0.005)
			return sig, str, sc, fmt.Sprintf("price=%.2f MA20=%.2f", s.CurrentPrice, s.MA20)
		}},
		{"T-08", "obv_short_rising", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.OBV5 > s.OBV10, absf(s.OBV5-s.OBV10)/maxf(absf(s.OBV10), 1), 0.1, 0.04, 0.01)
			return sig, str, sc, "OBV5 vs OBV10"
		}},
		{"T-09", "obv_long_trend", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.OBV23 > s.OBV56, absf(s.OBV23-s.OBV56)/maxf(absf(s.OBV56), 1), 0.15, 0.06, 0.02)
			return sig, str, sc, "OBV23 vs OBV56"
		}},
		{"T-10", "cmf_positive", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.CMF > 0, absf(s.CMF), 0.2, 0.1, 0.02)
			return sig, str, sc, fmt.Sprintf("CMF=%.3f", s.CMF)
		}},
		{"T-11", "clv_strength", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.CLV > 0, absf(s.CLV), 0.6, 0.3, 0.05)
			return sig, str, sc, fmt.Sprintf("CLV=%.3f", s.CLV)
		}},
		{"T-12", "adx_trend_strength", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.ADX < 20 {
				return domain.TriggerNeutral, domain.StrengthNone, 0, "weak/no trend"
			}
			sig, str, sc := bucket(s.PlusDI > s.MinusDI, s.ADX, 40, 30, 20)
			return sig, str, sc, fmt.Sprintf("ADX=%.1f +DI=%.1f -DI=%.1f", s.ADX, s.PlusDI, s.MinusDI)
		}},
		{"T-13", "di_crossover", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.PlusDI > s.MinusDI, absf(s.PlusDI-s.MinusDI), 15, 8, 2)
			return sig, str, sc, "+DI/-DI spread"
		}},
		{"T-14", "avwap_position", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.AVWAP60PctDev <= 0 && s.AVWAP60PctDev >= -5 {
				return domain.TriggerBullish, domain.StrengthVeryStrong, 10, fmt.Sprintf("price %.1f%% below AVWAP60", -s.AVWAP60PctDev)
			}
			sig, str, sc := bucket(s.AVWAP60PctDev < 0, absf(s.AVWAP60PctDev), 15, 8, 3)
			return sig, str, sc, fmt.Sprintf("AVWAP60 dev=%.2f%%", s.AVWAP60PctDev)
		}},
		{"T-15", "avwap20_position", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.AVWAP20PctDev > 0, absf(s.AVWAP20PctDev), 5, 2, 0.5)
			return sig, str, sc, fmt.Sprintf("AVWAP20 dev=%.2f%%", s.AVWAP20PctDev)
		}},
		{"T-16", "bollinger_position", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			width := s.BollUpper - s.BollLower
			if width <= 0 {
				return domain.TriggerNeutral, domain.StrengthNone, 0, "bollinger bands unavailable"
			}
			pos := (s.CurrentPrice - s.BollLower) / width
			sig, str, sc := bucket(pos > 0.5, absf(pos-0.5)*2, 0.8, 0.5, 0.2)
			return sig, str, sc, fmt.Sprintf("band position=%.2f", pos)
		}},
		{"T-17", "boll_width_contraction", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.BollWidth < 0.05 {
				return domain.TriggerBullish, domain.StrengthModerate, 5, "band width contracted"
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "bands not contracted"
		}},
		{"T-18", "bbwp_low", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.BBWP <= 20 {
				return domain.TriggerBullish, domain.StrengthStrong, 7, fmt.Sprintf("BBWP=%.0f (low volatility regime)", s.BBWP)
			}
			if s.BBWP >= 90 {
				return domain.TriggerBearish, domain.StrengthModerate, 4, fmt.Sprintf("BBWP=%.0f (stretched)", s.BBWP)
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "BBWP mid-range"
		}},
		{"T-19", "atr_contraction", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.ATRPct < 1.5 {
				return domain.TriggerBullish, domain.StrengthModerate, 5, fmt.Sprintf("ATR%%=%.2f (low volatility)", s.ATRPct)
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "ATR normal"
		}},
		{"T-20", "ttm_squeeze", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.TTMSqueeze && s.BBWP <= 20 {
				return domain.TriggerBullish, domain.StrengthVeryStrong, 10, "bands inside Keltner channel with BBWP<=20"
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "no squeeze"
		}},
		{"T-21", "mfi_oversold_overbought", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.MFI <= 20 {
				return domain.TriggerBullish, domain.StrengthStrong, 7, fmt.Sprintf("MFI=%.1f oversold", s.MFI)
			}
			if s.MFI >= 80 {
				return domain.TriggerBearish, domain.StrengthStrong, 7, fmt.Sprintf("MFI=%.1f overbought", s.MFI)
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "MFI neutral"
		}},
		{"T-22", "udvr", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.UDVR60 > 1, absf(s.UDVR60-1), 1.0, 0.4, 0.1)
			return sig, str, sc, fmt.Sprintf("UDVR60=%.2f", s.UDVR60)
		}},
		{"T-23", "rvol20_elevated", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.RVOL20 > 1, absf(s.RVOL20-1), 1.0, 0.5, 0.15)
			return sig, str, sc, fmt.Sprintf("RVOL20=%.2f", s.RVOL20)
		}},
		{"T-24", "rvol50_elevated", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.RVOL50 > 1, absf(s.RVOL50-1), 0.8, 0.4, 0.1)
			return sig, str, sc, fmt.Sprintf("RVOL50=%.2f", s.RVOL50)
		}},
		{"T-25", "near_52w_high", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.Position52Week > 50, absf(s.Position52Week-50)/50, 0.8, 0.5, 0.2)
			return sig, str, sc, fmt.Sprintf("52w position=%.1f%%", s.Position52Week)
		}},
		{"T-26", "near_52w_low", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.Position52Week <= 10 {
				return domain.TriggerBearish, domain.StrengthStrong, 7, "near 52-week low"
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "off the lows"
		}},
		{"T-27", "ma5_slope", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.MA5 > s.MA20 && s.CurrentPrice > s.MA5, 1, 1, 1, 0)
			return sig, str, sc, "short MA alignment"
		}},
		{"T-28", "trend_alignment", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			aligned := s.MA5 > s.MA20 && s.MA20 > s.MA60 && s.MA60 > s.MA120
			if aligned {
				return domain.TriggerBullish, domain.StrengthVeryStrong, 9, "full moving-average stack aligned"
			}
			bearAligned := s.MA5 < s.MA20 && s.MA20 < s.MA60 && s.MA60 < s.MA120
			if bearAligned {
				return domain.TriggerBearish, domain.StrengthVeryStrong, 9, "moving averages inverted"
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "mixed MA alignment"
		}},
		{"T-29", "volume_confirmation", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			up := s.CurrentPrice > s.MA20
			sig, str, sc := bucket(up && s.VolumeRatio5to20 > 1.2, s.VolumeRatio5to20, 1.8, 1.4, 1.2)
			return sig, str, sc, "price move confirmed by volume"
		}},
		{"T-30", "cmf_trend", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.CMF > 0.05, absf(s.CMF), 0.25, 0.12, 0.05)
			return sig, str, sc, "CMF sustained flow"
		}},
		{"T-31", "obv_price_divergence", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			priceUp := s.CurrentPrice > s.MA20
			obvUp := s.OBV5 > s.OBV10
			if priceUp && !obvUp {
				return domain.TriggerBearish, domain.StrengthModerate, 5, "bearish divergence: price up, OBV down"
			}
			if !priceUp && obvUp {
				return domain.TriggerBullish, domain.StrengthModerate, 5, "bullish divergence: price down, OBV up"
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "no divergence"
		}},
		{"T-32", "adx_weakening", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.ADX < 15 {
				return domain.TriggerNeutral, domain.StrengthWeak, 2, "trend strength low, range-bound"
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "trend present"
		}},
		{"T-33", "mfi_trend", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.MFI > 50, absf(s.MFI-50)/50, 0.4, 0.2, 0.05)
			return sig, str, sc, fmt.Sprintf("MFI=%.1f", s.MFI)
		}},
		{"T-34", "atr_expansion", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.ATRPct > 5 {
				return domain.TriggerBearish, domain.StrengthModerate, 4, fmt.Sprintf("ATR%%=%.2f elevated volatility", s.ATRPct)
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "ATR contained"
		}},
		{"T-35", "bollinger_breakout_upper", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.BollUpper > 0 && s.CurrentPrice > s.BollUpper {
				return domain.TriggerBullish, domain.StrengthStrong, 7, "price above upper band"
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "inside bands"
		}},
		{"T-36", "bollinger_breakout_lower", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.BollLower > 0 && s.CurrentPrice < s.BollLower {
				return domain.TriggerBearish, domain.StrengthStrong, 7, "price below lower band"
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "inside bands"
		}},
		{"T-37", "trading_value_drought", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.TVRatio5to20 < 0.5 {
				return domain.TriggerBearish, domain.StrengthModerate, 4, "trading value drying up"
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "trading value normal"
		}},
		{"T-38", "obv_stack", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			aligned := s.OBV5 > s.OBV10 && s.OBV10 > s.OBV23 && s.OBV23 > s.OBV56
			if aligned {
				return domain.TriggerBullish, domain.StrengthStrong, 7, "OBV stack fully aligned bullish"
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "OBV stack mixed"
		}},
		{"T-39", "price_ma120_extension", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.MA120 == 0 {
				return domain.TriggerNeutral, domain.StrengthNone, 0, "insufficient history for MA120"
			}
			dev := (s.CurrentPrice - s.MA120) / s.MA120
			sig, str, sc := bucket(dev > 0, absf(dev), 0.25, 0.12, 0.03)
			return sig, str, sc, fmt.Sprintf("price vs MA120 dev=%.1f%%", dev*100)
		}},
		{"T-40", "clv_persistence", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			sig, str, sc := bucket(s.CLV > 0.3, absf(s.CLV), 0.8, 0.5, 0.3)
			return sig, str, sc, "closing location persistence"
		}},
		{"T-41", "di_trend_confirmation", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.ADX >= 25 && s.PlusDI > s.MinusDI {
				return domain.TriggerBullish, domain.StrengthStrong, 6, "confirmed directional trend"
			}
			if s.ADX >= 25 && s.MinusDI > s.PlusDI {
				return domain.TriggerBearish, domain.StrengthStrong, 6, "confirmed directional downtrend"
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "no confirmed trend"
		}},
		{"T-42", "composite_exhaustion", func(s domain.IndicatorSnapshot) (domain.TriggerSignal, domain.TriggerStrength, int, string) {
			if s.MFI >= 85 && s.Position52Week >= 90 {
				return domain.TriggerBearish, domain.StrengthVeryStrong, 9, "overbought near 52-week high: exhaustion risk"
			}
			if s.MFI <= 15 && s.Position52Week <= 10 {
				return domain.TriggerBullish, domain.StrengthVeryStrong, 9, "oversold near 52-week low: capitulation"
			}
			return domain.TriggerNeutral, domain.StrengthNone, 0, "no exhaustion pattern"
		}},
	}
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
