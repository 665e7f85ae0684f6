package stats

import (
	"time"

	"pulse-mcp/internal/health"
	"pulse-mcp/internal/jira"

	"github.com/samber/lo"
)

// trendChangeThreshold is the velocity change (percent) separating a stable
// trend from an improving or declining one.
const trendChangeThreshold = 10.0

// forecastConfidenceWeeks is the history length at which forecast confidence
// saturates.
const forecastConfidenceWeeks = 8

// CalculateDashboardMetrics condenses the weekly series into the top-level
// delivery signals. Returns nil when the series is empty.
func CalculateDashboardMetrics(weekly []WeeklyStat) *health.DashboardMetrics {
	if len(weekly) == 0 {
		return nil
	}

	totalResolved := 0
	for _, ws := range weekly {
		totalResolved += ws.ItemsResolved
	}
	openAtEnd := weekly[len(weekly)-1].CumulativeOpen
	if openAtEnd < 0 {
		openAtEnd = 0
	}

	dm := &health.DashboardMetrics{TrendDirection: "stable"}
	if totalResolved+openAtEnd > 0 {
		dm.CompletionPercentage = Round1(float64(totalResolved) / float64(totalResolved+openAtEnd) * 100)
	}
	dm.ThroughputPerWeek = ptr(Round2(float64(totalResolved) / float64(len(weekly))))

	confidence := float64(len(weekly)) / forecastConfidenceWeeks
	if confidence > 1 {
		confidence = 1
	}
	dm.ForecastConfidence = ptr(Round2(confidence))

	// Trend: recent half vs prior half of the window.
	if len(weekly) >= 4 {
		mid := len(weekly) / 2
		prior := meanResolved(weekly[:mid])
		recent := meanResolved(weekly[mid:])
		if prior > 0 {
			change := (recent - prior) / prior * 100
			dm.VelocityChangePercent = ptr(Round1(change))
			switch {
			case change > trendChangeThreshold:
				dm.TrendDirection = "improving"
			case change < -trendChangeThreshold:
				dm.TrendDirection = "declining"
			}
		}
	}

	return dm
}

func meanResolved(weekly []WeeklyStat) float64 {
	values := lo.Map(weekly, func(ws WeeklyStat, _ int) float64 {
		return float64(ws.ItemsResolved)
	})
	return Mean(values)
}

// CalculateScopeMetrics measures scope churn: work added inside the window
// against the backlog that existed when the window opened. A project with no
// pre-window baseline yields an absent change rate rather than a zero.
func CalculateScopeMetrics(issues []jira.Issue, windowStart time.Time) health.ScopeMetrics {
	baseline := 0
	added := 0
	for _, issue := range issues {
		if issue.IsSubtask {
			continue
		}
		if issue.Created.Before(windowStart) {
			baseline++
		} else {
			added++
		}
	}
	if baseline == 0 {
		return health.ScopeMetrics{}
	}
	return health.ScopeMetrics{
		ChangeRate: ptr(Round2(float64(added) / float64(baseline))),
	}
}
