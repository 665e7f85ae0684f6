package stats

import (
	"math"
	"time"
)

// DefaultForecastWindowWeeks is the trailing history window used when the
// caller does not override it.
const DefaultForecastWindowWeeks = 8

// minForecastHistoryWeeks is the floor below which forecasting is disabled.
const minForecastHistoryWeeks = 4

// pessimisticRateFloor prevents division by zero when variance swamps the mean.
const pessimisticRateFloor = 0.1

// BugForecast is a three-point estimate of when the open bug backlog clears.
// When InsufficientData is true the week and date fields are zero/empty and
// must not be rendered.
type BugForecast struct {
	OptimisticWeeks  int     `json:"optimistic_weeks"`
	MostLikelyWeeks  int     `json:"most_likely_weeks"`
	PessimisticWeeks int     `json:"pessimistic_weeks"`
	OptimisticDate   string  `json:"optimistic_date,omitempty"`
	MostLikelyDate   string  `json:"most_likely_date,omitempty"`
	PessimisticDate  string  `json:"pessimistic_date,omitempty"`
	AvgClosureRate   float64 `json:"avg_closure_rate"`
	InsufficientData bool    `json:"insufficient_data"`
}

// ForecastBugResolution estimates weeks-to-zero-bugs from the trailing weekly
// closure history. useLastNWeeks <= 0 selects the default window.
func ForecastBugResolution(openBugs int, weekly []WeeklyStat, useLastNWeeks int) BugForecast {
	return ForecastBugResolutionAt(openBugs, weekly, useLastNWeeks, time.Now())
}

// ForecastBugResolutionAt is the clock-injected variant of ForecastBugResolution.
func ForecastBugResolutionAt(openBugs int, weekly []WeeklyStat, useLastNWeeks int, now time.Time) BugForecast {
	if useLastNWeeks <= 0 {
		useLastNWeeks = DefaultForecastWindowWeeks
	}

	// Nothing left to close: immediate completion, always confident.
	if openBugs == 0 {
		today := now.Format("2006-01-02")
		return BugForecast{
			OptimisticDate:  today,
			MostLikelyDate:  today,
			PessimisticDate: today,
		}
	}

	if len(weekly) < minForecastHistoryWeeks {
		return BugForecast{InsufficientData: true}
	}

	window := weekly
	if len(window) > useLastNWeeks {
		window = window[len(window)-useLastNWeeks:]
	}

	rates := make([]float64, len(window))
	for i, ws := range window {
		rates[i] = float64(ws.BugsResolved)
	}

	mean := Mean(rates)
	if mean == 0 {
		// A closure rate of zero cannot be projected forward.
		return BugForecast{InsufficientData: true}
	}
	stddev := StdDev(rates)

	optimisticRate := math.Max(mean+stddev, mean)
	pessimisticRate := math.Max(mean-stddev, pessimisticRateFloor)

	likelyWeeks := weeksToComplete(openBugs, mean)
	optimisticWeeks := weeksToComplete(openBugs, optimisticRate)
	pessimisticWeeks := weeksToComplete(openBugs, pessimisticRate)

	// Ordering invariant: optimistic <= likely <= pessimistic.
	if optimisticWeeks > likelyWeeks {
		optimisticWeeks = likelyWeeks
	}
	if pessimisticWeeks < likelyWeeks {
		pessimisticWeeks = likelyWeeks
	}

	return BugForecast{
		OptimisticWeeks:  optimisticWeeks,
		MostLikelyWeeks:  likelyWeeks,
		PessimisticWeeks: pessimisticWeeks,
		OptimisticDate:   projectDate(now, optimisticWeeks),
		MostLikelyDate:   projectDate(now, likelyWeeks),
		PessimisticDate:  projectDate(now, pessimisticWeeks),
		AvgClosureRate:   Round2(mean),
	}
}

// weeksToComplete is ceil(openBugs / rate) for a strictly positive rate.
func weeksToComplete(openBugs int, rate float64) int {
	weeks := int(float64(openBugs) / rate)
	if float64(openBugs) > float64(weeks)*rate {
		weeks++
	}
	return weeks
}

func projectDate(now time.Time, weeksAhead int) string {
	return now.AddDate(0, 0, weeksAhead*7).Format("2006-01-02")
}
