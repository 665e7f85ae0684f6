package health

import "math"

// Nominal dimension weight caps before redistribution. They sum to 100.
const (
	maxWeightDelivery       = 25.0
	maxWeightPredictability = 20.0
	maxWeightQuality        = 20.0
	maxWeightEfficiency     = 15.0
	maxWeightSustainability = 10.0
	maxWeightFinancial      = 10.0
)

// signalSum accumulates earned points against the points that were evaluable.
type signalSum struct {
	points   float64
	possible float64
}

func (s *signalSum) add(points, max float64) {
	s.points += clamp(points, 0, max)
	s.possible += max
}

// dimension converts the accumulated signals into a (score, weight) pair.
// fullPossible is the dimension's total signal budget; partial data earns a
// proportionally smaller weight. No usable signals -> neutral 50, weight 0.
func (s signalSum) dimension(maxWeight, fullPossible float64) Dimension {
	if s.possible == 0 {
		return Dimension{Score: 50, Weight: 0, MaxWeight: maxWeight}
	}
	return Dimension{
		Score:     s.points / s.possible * 100,
		Weight:    maxWeight * s.possible / fullPossible,
		MaxWeight: maxWeight,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// logistic is a standard sigmoid: 0.5 at mid, approaching 1 as x grows past
// mid with steepness k.
func logistic(x, mid, k float64) float64 {
	return 1 / (1 + math.Exp(-k*(x-mid)))
}

// scoreDelivery: completion (30), trend (35), throughput sigmoid (35).
func scoreDelivery(dashboard *DashboardMetrics, flow *FlowMetrics) Dimension {
	var s signalSum

	if dashboard != nil {
		s.add(dashboard.CompletionPercentage/100*30, 30)

		if dashboard.TrendDirection != "" || dashboard.VelocityChangePercent != nil {
			change := 0.0
			if dashboard.VelocityChangePercent != nil {
				change = *dashboard.VelocityChangePercent
			}
			switch {
			case dashboard.TrendDirection == "improving" || change > 10:
				s.add(35, 35)
			case dashboard.TrendDirection == "declining" || change < -10:
				s.add(10, 35)
			default:
				s.add(25, 35)
			}
		}
	}

	// Throughput: logistic centered at 5 items/week via flow, or the
	// dashboard fallback centered at 3.
	switch {
	case flow != nil && flow.ThroughputPerWeek != nil:
		s.add(35*logistic(*flow.ThroughputPerWeek, 5, 0.8), 35)
	case dashboard != nil && dashboard.ThroughputPerWeek != nil:
		s.add(35*logistic(*dashboard.ThroughputPerWeek, 3, 0.8), 35)
	}

	return s.dimension(maxWeightDelivery, 100)
}

// scorePredictability: velocity CV (50), schedule variance (30), forecast
// confidence (20).
func scorePredictability(dashboard *DashboardMetrics, flow *FlowMetrics) Dimension {
	var s signalSum

	if flow != nil && flow.VelocityCV != nil {
		// Gentler logistic centered at 70% CV, floored at 3 points.
		pts := 50 / (1 + math.Exp(4*(*flow.VelocityCV-0.70)))
		s.add(math.Max(pts, 3), 50)
	}

	if dashboard != nil && dashboard.ScheduleBufferDays != nil {
		// tanh maps buffer days onto [0,30]; positive buffer is ahead of schedule.
		s.add((math.Tanh(*dashboard.ScheduleBufferDays/20)+1)/2*30, 30)
	}

	if dashboard != nil && dashboard.ForecastConfidence != nil {
		s.add(*dashboard.ForecastConfidence*20, 20)
	}

	return s.dimension(maxWeightPredictability, 100)
}

// scoreQuality: resolution rate (30), change failure rate (25), MTTR (20),
// bug density (15) + bug age (10).
func scoreQuality(bug *BugMetrics, dora *DoraMetrics) Dimension {
	var s signalSum

	if bug != nil && bug.ResolutionRate != nil {
		s.add(*bug.ResolutionRate*30, 30)
	}

	if dora != nil && dora.ChangeFailureRate != nil {
		// 0% -> 25 points, 30%+ -> 0.
		s.add(25*(1-*dora.ChangeFailureRate/0.30), 25)
	}

	if dora != nil && dora.MTTRHours != nil {
		s.add(mttrPoints(*dora.MTTRHours), 20)
	}

	if bug != nil && bug.DensityRatio != nil {
		// Inverted linear against a 40% capacity cap.
		s.add(15*(1-*bug.DensityRatio/0.40), 15)
	}
	if bug != nil && bug.AvgOpenAgeDays != nil {
		// Logarithmic against a 30-day cap.
		age := math.Max(*bug.AvgOpenAgeDays, 0)
		s.add(10*(1-math.Log(1+age)/math.Log(31)), 10)
	}

	return s.dimension(maxWeightQuality, 100)
}

// mttrPoints interpolates logarithmically: sub-1h recovery earns full points,
// a full week (168h) earns none.
func mttrPoints(hours float64) float64 {
	if hours <= 1 {
		return 20
	}
	if hours >= 168 {
		return 0
	}
	return 20 * (1 - math.Log(hours)/math.Log(168))
}

// scoreEfficiency: flow efficiency (40), flow time inverted logistic (35).
func scoreEfficiency(flow *FlowMetrics) Dimension {
	var s signalSum

	if flow != nil && flow.FlowEfficiency != nil {
		// Linear, capped at 50% efficiency.
		s.add(40*math.Min(*flow.FlowEfficiency/0.50, 1), 40)
	}

	if flow != nil && flow.FlowTimeDays != nil {
		// Inverted logistic centered at 7 days.
		s.add(35*(1-logistic(*flow.FlowTimeDays, 7, 0.5)), 35)
	}

	return s.dimension(maxWeightEfficiency, 75)
}

// scoreSustainability: scope change penalty (40), WIP vs ideal bell (35),
// work mix balance (25). The stage factor damps the scope penalty early in a
// project, when large scope changes are expected and healthy.
func scoreSustainability(scope ScopeMetrics, flow *FlowMetrics, stageFactor float64) Dimension {
	var s signalSum

	if scope.ChangeRate != nil {
		rate := math.Max(*scope.ChangeRate, 0)
		var penalty float64
		if rate <= 1 {
			penalty = 40 * rate
		} else {
			// Logarithmic above 100% so runaway churn saturates instead of exploding.
			penalty = 40 * (1 + math.Log(rate))
		}
		s.add(40-stageFactor*penalty, 40)
	}

	if flow != nil && flow.WIPCount != nil && flow.VelocityPerWeek != nil && *flow.VelocityPerWeek > 0 {
		// Little's-Law-with-buffer ideal: 1.5x weekly velocity.
		ideal := 1.5 * *flow.VelocityPerWeek
		s.add(wipBellPoints(*flow.WIPCount/ideal), 35)
	}

	if flow != nil && flow.WorkMix != nil {
		s.add(workMixPoints(*flow.WorkMix), 25)
	}

	return s.dimension(maxWeightSustainability, 100)
}

// wipBellPoints gives full marks within +-20% of the ideal WIP ratio and
// tapers to zero beyond 2x or below 0.5x.
func wipBellPoints(ratio float64) float64 {
	switch {
	case ratio >= 0.8 && ratio <= 1.2:
		return 35
	case ratio > 1.2 && ratio < 2.0:
		return 35 * (2.0 - ratio) / 0.8
	case ratio > 0.5 && ratio < 0.8:
		return 35 * (ratio - 0.5) / 0.3
	default:
		return 0
	}
}

// workMixPoints scores distance from the ideal 60/20/15 feature/defect/debt
// mix via three independent linear penalties.
func workMixPoints(mix WorkMix) float64 {
	pts := 0.0
	pts += 10 * math.Max(0, 1-math.Abs(mix.FeatureShare-0.60)/0.40)
	pts += 8 * math.Max(0, 1-math.Abs(mix.DefectShare-0.20)/0.40)
	pts += 7 * math.Max(0, 1-math.Abs(mix.DebtShare-0.15)/0.40)
	return pts
}

// scoreFinancial: burn variance tiers (40), runway vs baseline (35),
// utilization vs schedule pace (25). Only active when budget data is present.
func scoreFinancial(budget *BudgetMetrics) Dimension {
	var s signalSum
	if budget == nil {
		return s.dimension(maxWeightFinancial, 100)
	}

	if budget.BurnRateVariancePercent != nil {
		v := math.Abs(*budget.BurnRateVariancePercent)
		switch {
		case v <= 10:
			s.add(40, 40)
		case v <= 25:
			s.add(25, 40)
		case v <= 50:
			s.add(10, 40)
		default:
			s.add(0, 40)
		}
	}

	if budget.RunwayWeeks != nil && budget.RemainingScheduleWeeks != nil && *budget.RemainingScheduleWeeks > 0 {
		ratio := *budget.RunwayWeeks / *budget.RemainingScheduleWeeks
		s.add(35*math.Min(ratio, 1), 35)
	}

	if budget.UtilizationPercent != nil && budget.ScheduleProgressPercent != nil {
		gap := math.Abs(*budget.UtilizationPercent - *budget.ScheduleProgressPercent)
		s.add(25*math.Max(0, 1-gap/50), 25)
	}

	return s.dimension(maxWeightFinancial, 100)
}
