package snapshot

import (
	"fmt"
	"math"
)

// ForecastInfo is the per-metric forecast attached alongside a snapshot.
type ForecastInfo struct {
	Value          float64        `json:"forecast_value"`
	Confidence     float64        `json:"confidence"` // 0-1
	WeeksAvailable int            `json:"weeks_available"`
	Range          *ForecastRange `json:"forecast_range,omitempty"`
}

// ForecastRange is an optional optimistic/pessimistic band for the forecast.
type ForecastRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// SaveWithForecast persists a snapshot augmented with `forecast` and
// `trend_vs_forecast` sub-keys. The base fields pass through untouched; the
// trend is derived from the actual value stored under actualKey.
// lowerIsBetter flips the goodness judgement for metrics like flow time.
func (s *Store) SaveWithForecast(week, metric string, base Fields, fc ForecastInfo, actualKey string, lowerIsBetter bool) error {
	augmented := base.Clone()

	forecast := Fields{
		"forecast_value":  fc.Value,
		"confidence":      fc.Confidence,
		"weeks_available": fc.WeeksAvailable,
	}
	if fc.Range != nil {
		forecast["forecast_range"] = Fields{"low": fc.Range.Low, "high": fc.Range.High}
	}
	augmented["forecast"] = forecast

	if actual, ok := numericValue(base[actualKey]); ok {
		augmented["trend_vs_forecast"] = trendVsForecast(actual, fc.Value, lowerIsBetter)
	}

	return s.Save(week, metric, augmented)
}

// trendVsForecast classifies the actual value against its forecast.
func trendVsForecast(actual, forecast float64, lowerIsBetter bool) Fields {
	const onTrackBand = 5.0 // percent deviation treated as "on forecast"

	deviation := 0.0
	if forecast != 0 {
		deviation = (actual - forecast) / forecast * 100
	}

	direction := "on_forecast"
	switch {
	case deviation > onTrackBand:
		direction = "above_forecast"
	case deviation < -onTrackBand:
		direction = "below_forecast"
	}

	isGood := true
	statusText := "On track with forecast"
	if direction != "on_forecast" {
		ahead := direction == "above_forecast"
		if lowerIsBetter {
			ahead = !ahead
		}
		if ahead {
			statusText = fmt.Sprintf("Ahead of forecast by %.1f%%", math.Abs(deviation))
		} else {
			statusText = fmt.Sprintf("Behind forecast by %.1f%%", math.Abs(deviation))
			isGood = false
		}
	}

	return Fields{
		"direction":         direction,
		"deviation_percent": math.Round(deviation*10) / 10,
		"status_text":       statusText,
		"is_good":           isGood,
	}
}
