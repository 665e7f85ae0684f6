package stats

import (
	"fmt"
	"math"
	"slices"
)

// Insight severities, ordered most to least urgent.
const (
	SeverityCritical = "CRITICAL"
	SeverityWarning  = "WARNING"
	SeverityInfo     = "INFO"
)

// maxInsights caps the list handed to the presentation layer.
const maxInsights = 10

// Insight is one prioritized, human-readable finding about bug quality.
type Insight struct {
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation"`
}

// BugSummary is the aggregate bug position fed into the insight rules.
type BugSummary struct {
	TotalBugs      int     `json:"total_bugs"`
	OpenBugs       int     `json:"open_bugs"`
	ClosedBugs     int     `json:"closed_bugs"`
	ResolutionRate float64 `json:"resolution_rate"` // 0-1
}

// InsightThresholds tune the rule checks. Zero values fall back to defaults.
type InsightThresholds struct {
	MinResolutionRate          float64 `json:"min_resolution_rate"`
	CriticalResolutionRate     float64 `json:"critical_resolution_rate"`
	ConsecutiveIncreasingWeeks int     `json:"consecutive_increasing_weeks"`
	StableVarianceThreshold    float64 `json:"stable_variance_threshold"`
	HighBugCapacityThreshold   float64 `json:"high_bug_capacity_threshold"`
}

// DefaultInsightThresholds returns the documented rule defaults.
func DefaultInsightThresholds() InsightThresholds {
	return InsightThresholds{
		MinResolutionRate:          0.60,
		CriticalResolutionRate:     0.40,
		ConsecutiveIncreasingWeeks: 3,
		StableVarianceThreshold:    0.2,
		HighBugCapacityThreshold:   0.30,
	}
}

// merged fills zero-valued overrides with defaults.
func (t InsightThresholds) merged() InsightThresholds {
	d := DefaultInsightThresholds()
	if t.MinResolutionRate == 0 {
		t.MinResolutionRate = d.MinResolutionRate
	}
	if t.CriticalResolutionRate == 0 {
		t.CriticalResolutionRate = d.CriticalResolutionRate
	}
	if t.ConsecutiveIncreasingWeeks == 0 {
		t.ConsecutiveIncreasingWeeks = d.ConsecutiveIncreasingWeeks
	}
	if t.StableVarianceThreshold == 0 {
		t.StableVarianceThreshold = d.StableVarianceThreshold
	}
	if t.HighBugCapacityThreshold == 0 {
		t.HighBugCapacityThreshold = d.HighBugCapacityThreshold
	}
	return t
}

var severityRank = map[string]int{
	SeverityCritical: 0,
	SeverityWarning:  1,
	SeverityInfo:     2,
}

// GenerateQualityInsights runs the five bug-quality rule checks and returns
// at most maxInsights findings, sorted CRITICAL > WARNING > INFO with stable
// insertion order inside each severity. Empty input yields an empty list.
func GenerateQualityInsights(summary BugSummary, weekly []WeeklyStat, thresholds InsightThresholds) []Insight {
	th := thresholds.merged()

	var insights []Insight
	appendIfAny := func(ins *Insight) {
		if ins != nil {
			insights = append(insights, *ins)
		}
	}

	appendIfAny(checkResolutionRate(summary, th))
	appendIfAny(checkIncreasingTrend(weekly, th))
	appendIfAny(checkPositiveTrend(weekly))
	appendIfAny(checkStableQuality(weekly))
	appendIfAny(checkZeroOpenBugs(summary))

	slices.SortStableFunc(insights, func(a, b Insight) int {
		return severityRank[a.Severity] - severityRank[b.Severity]
	})

	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}
	return insights
}

func checkResolutionRate(summary BugSummary, th InsightThresholds) *Insight {
	if summary.TotalBugs == 0 {
		return nil
	}

	pct := summary.ResolutionRate * 100
	switch {
	case summary.ResolutionRate < th.CriticalResolutionRate:
		return &Insight{
			Type:           "low_resolution_rate",
			Severity:       SeverityCritical,
			Message:        fmt.Sprintf("Bug resolution rate is critically low at %.0f%%.", pct),
			Recommendation: "Stop feature work and run a dedicated bug-fixing push until the backlog is under control.",
		}
	case summary.ResolutionRate < th.MinResolutionRate:
		return &Insight{
			Type:           "low_resolution_rate",
			Severity:       SeverityWarning,
			Message:        fmt.Sprintf("Bug resolution rate is below target at %.0f%%.", pct),
			Recommendation: "Reserve a fixed share of each week's capacity for bug fixing.",
		}
	}
	return nil
}

func checkIncreasingTrend(weekly []WeeklyStat, th InsightThresholds) *Insight {
	window := lastWeeks(weekly, 8)

	run := 0
	for _, ws := range window {
		if ws.BugsCreated > ws.BugsResolved {
			run++
			if run >= th.ConsecutiveIncreasingWeeks {
				// First qualifying run wins; one insight regardless of further runs.
				return &Insight{
					Type:           "increasing_bug_trend",
					Severity:       SeverityWarning,
					Message:        fmt.Sprintf("Bugs have been created faster than resolved for %d consecutive weeks.", run),
					Recommendation: "Investigate recent changes driving the defect inflow and rebalance capacity toward fixing.",
				}
			}
		} else {
			run = 0
		}
	}
	return nil
}

func checkPositiveTrend(weekly []WeeklyStat) *Insight {
	window := lastWeeks(weekly, 4)
	if len(window) < 4 {
		return nil
	}

	improving := 0
	for _, ws := range window {
		if ws.BugsResolved > ws.BugsCreated {
			improving++
		}
	}
	if improving >= 3 {
		return &Insight{
			Type:           "positive_bug_trend",
			Severity:       SeverityInfo,
			Message:        fmt.Sprintf("Bug backlog shrank in %d of the last 4 weeks.", improving),
			Recommendation: "Keep the current fixing cadence; the backlog is trending down.",
		}
	}
	return nil
}

func checkStableQuality(weekly []WeeklyStat) *Insight {
	window := lastWeeks(weekly, 4)
	if len(window) < 4 {
		return nil
	}

	nets := make([]float64, len(window))
	activity := 0
	for i, ws := range window {
		nets[i] = float64(ws.BugsCreated - ws.BugsResolved)
		activity += ws.BugsCreated + ws.BugsResolved
	}
	if activity == 0 {
		// A dead-quiet window is absence of data, not stability.
		return nil
	}

	if Variance(nets) < 10 && math.Abs(Mean(nets)) < 2 {
		return &Insight{
			Type:           "stable_quality",
			Severity:       SeverityInfo,
			Message:        "Bug inflow and outflow have been balanced over the last 4 weeks.",
			Recommendation: "No action needed; quality is in a steady state.",
		}
	}
	return nil
}

func checkZeroOpenBugs(summary BugSummary) *Insight {
	if summary.OpenBugs == 0 && summary.TotalBugs > 0 {
		return &Insight{
			Type:           "zero_open_bugs",
			Severity:       SeverityInfo,
			Message:        "All reported bugs are resolved.",
			Recommendation: "Use the spare quality capacity for preventive work such as tests or refactoring.",
		}
	}
	return nil
}

func lastWeeks(weekly []WeeklyStat, n int) []WeeklyStat {
	if len(weekly) > n {
		return weekly[len(weekly)-n:]
	}
	return weekly
}
