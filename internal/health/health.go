package health

import (
	"math"
	"time"
)

// weightTolerance is the acceptable deviation from a 100-point weight total.
const weightTolerance = 0.1

// maxRebalanceIterations bounds the capped water-filling loop.
const maxRebalanceIterations = 10

// dimOrder fixes evaluation order so identical inputs always yield identical
// results.
var dimOrder = []string{
	DimDelivery,
	DimPredictability,
	DimQuality,
	DimEfficiency,
	DimSustainability,
	DimFinancial,
}

// Calculate blends the six health dimensions into a single 0-100 score.
// Every bundle except scope may be nil, meaning that domain's data is
// unavailable; its dimensions simply earn zero weight.
func Calculate(dashboard *DashboardMetrics, dora *DoraMetrics, flow *FlowMetrics, bug *BugMetrics, budget *BudgetMetrics, scope ScopeMetrics) Result {
	completion := 0.0
	if dashboard != nil {
		completion = dashboard.CompletionPercentage
	}
	stage := detectStage(completion)

	dims := map[string]Dimension{
		DimDelivery:       scoreDelivery(dashboard, flow),
		DimPredictability: scorePredictability(dashboard, flow),
		DimQuality:        scoreQuality(bug, dora),
		DimEfficiency:     scoreEfficiency(flow),
		DimSustainability: scoreSustainability(scope, flow, stageScopeFactor(stage)),
		DimFinancial:      scoreFinancial(budget),
	}

	redistributeWeights(dims)

	overall := 0.0
	for _, name := range dimOrder {
		d := dims[name]
		overall += d.Score * d.Weight / 100
	}
	overall = math.Min(math.Max(overall, 0), 100)

	return Result{
		OverallScore:   int(math.Round(overall)),
		Dimensions:     dims,
		ProjectStage:   stage,
		FormulaVersion: FormulaVersion,
		Timestamp:      time.Now().UTC(),
	}
}

// detectStage maps completion percentage onto the project lifecycle.
func detectStage(completionPercentage float64) string {
	switch {
	case completionPercentage < 25:
		return StageInception
	case completionPercentage < 50:
		return StageEarly
	case completionPercentage < 75:
		return StageMid
	default:
		return StageLate
	}
}

// stageScopeFactor scales the sustainability scope-change penalty: scope
// churn is expected early and increasingly risky later.
func stageScopeFactor(stage string) float64 {
	switch stage {
	case StageInception:
		return 0.2
	case StageEarly:
		return 0.3
	case StageMid:
		return 0.6
	default:
		return 1.0
	}
}

// redistributeWeights is a capped water-filling pass: the unclaimed weight of
// missing dimensions is redistributed proportionally, inflating the caps of
// contributing dimensions, then actual weights grow toward a 100-point total
// without any dimension exceeding its inflated cap.
func redistributeWeights(dims map[string]Dimension) {
	total := 0.0
	activeMaxSum := 0.0
	for _, name := range dimOrder {
		d := dims[name]
		total += d.Weight
		if d.Weight > 0 {
			activeMaxSum += d.MaxWeight
		}
	}
	if total == 0 || activeMaxSum == 0 {
		return
	}
	if math.Abs(total-100) <= weightTolerance {
		return
	}

	// 1. Inflate caps of contributing dimensions to reclaim the missing share.
	for _, name := range dimOrder {
		d := dims[name]
		if d.Weight > 0 {
			d.MaxWeight = d.MaxWeight * 100 / activeMaxSum
			dims[name] = d
		}
	}

	// 2. Fill weights toward 100, respecting caps; dimensions at cap stop
	// absorbing and the remaining deficit is re-split by current weight.
	for i := 0; i < maxRebalanceIterations; i++ {
		total = 0.0
		for _, name := range dimOrder {
			total += dims[name].Weight
		}
		deficit := 100 - total
		if math.Abs(deficit) <= weightTolerance {
			break
		}

		eligibleSum := 0.0
		for _, name := range dimOrder {
			d := dims[name]
			if d.Weight > 0 && d.Weight < d.MaxWeight-1e-9 {
				eligibleSum += d.Weight
			}
		}
		if eligibleSum == 0 {
			break
		}

		for _, name := range dimOrder {
			d := dims[name]
			if d.Weight > 0 && d.Weight < d.MaxWeight-1e-9 {
				d.Weight = math.Min(d.Weight+deficit*d.Weight/eligibleSum, d.MaxWeight)
				dims[name] = d
			}
		}
	}
}
