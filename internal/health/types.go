// Package health computes the composite project health score from per-domain
// metric bundles. A nil bundle means "this domain's data is unavailable this
// period" and simply removes its weight from the blend.
package health

import "time"

// Dimension names, in blend order.
const (
	DimDelivery       = "delivery"
	DimPredictability = "predictability"
	DimQuality        = "quality"
	DimEfficiency     = "efficiency"
	DimSustainability = "sustainability"
	DimFinancial      = "financial"
)

// Project stages derived from completion percentage.
const (
	StageInception = "inception"
	StageEarly     = "early"
	StageMid       = "mid"
	StageLate      = "late"
)

// FormulaVersion is stamped into every Result for audit and debugging.
const FormulaVersion = "health-v2.3"

// DashboardMetrics carries the top-level delivery dashboard signals.
type DashboardMetrics struct {
	CompletionPercentage  float64  `json:"completion_percentage"` // 0-100
	TrendDirection        string   `json:"trend_direction"`       // improving, stable, declining
	VelocityChangePercent *float64 `json:"velocity_change_percent,omitempty"`
	ThroughputPerWeek     *float64 `json:"throughput_per_week,omitempty"` // fallback when flow is absent
	ScheduleBufferDays    *float64 `json:"schedule_buffer_days,omitempty"`
	ForecastConfidence    *float64 `json:"forecast_confidence,omitempty"` // 0-1
}

// DoraMetrics carries the DORA signal bundle.
type DoraMetrics struct {
	DeploymentsPerWeek *float64 `json:"deployments_per_week,omitempty"`
	LeadTimeHours      *float64 `json:"lead_time_hours,omitempty"`
	ChangeFailureRate  *float64 `json:"change_failure_rate,omitempty"` // 0-1
	MTTRHours          *float64 `json:"mttr_hours,omitempty"`
}

// WorkMix is the share of throughput by work class; shares are 0-1.
type WorkMix struct {
	FeatureShare float64 `json:"feature_share"`
	DefectShare  float64 `json:"defect_share"`
	DebtShare    float64 `json:"debt_share"`
}

// FlowMetrics carries the Kanban-style flow signal bundle.
type FlowMetrics struct {
	ThroughputPerWeek *float64 `json:"throughput_per_week,omitempty"`
	VelocityPerWeek   *float64 `json:"velocity_per_week,omitempty"`
	VelocityCV        *float64 `json:"velocity_cv,omitempty"` // coefficient of variation, 0-1+
	FlowEfficiency    *float64 `json:"flow_efficiency,omitempty"`
	FlowTimeDays      *float64 `json:"flow_time_days,omitempty"`
	WIPCount          *float64 `json:"wip_count,omitempty"`
	WorkMix           *WorkMix `json:"work_mix,omitempty"`
}

// BugMetrics carries the defect signal bundle.
type BugMetrics struct {
	TotalBugs      int      `json:"total_bugs"`
	OpenBugs       int      `json:"open_bugs"`
	ClosedBugs     int      `json:"closed_bugs"`
	ResolutionRate *float64 `json:"resolution_rate,omitempty"` // 0-1
	DensityRatio   *float64 `json:"density_ratio,omitempty"`   // open bugs / team capacity
	AvgOpenAgeDays *float64 `json:"avg_open_age_days,omitempty"`
}

// BudgetMetrics carries the financial signal bundle.
type BudgetMetrics struct {
	BurnRateVariancePercent *float64 `json:"burn_rate_variance_percent,omitempty"`
	RunwayWeeks             *float64 `json:"runway_weeks,omitempty"`
	RemainingScheduleWeeks  *float64 `json:"remaining_schedule_weeks,omitempty"`
	UtilizationPercent      *float64 `json:"utilization_percent,omitempty"`
	ScheduleProgressPercent *float64 `json:"schedule_progress_percent,omitempty"`
}

// ScopeMetrics always participates; each sub-signal handles its own absence.
type ScopeMetrics struct {
	ChangeRate *float64 `json:"change_rate,omitempty"` // added scope / baseline scope
}

// Dimension is one scored slice of the overall blend.
type Dimension struct {
	Score     float64 `json:"score"`      // 0-100; 50 when weight is 0 (unknown, not penalized)
	Weight    float64 `json:"weight"`     // share of the final blend, 0-100
	MaxWeight float64 `json:"max_weight"` // cap after redistribution
}

// Result is the immutable outcome of one health computation.
type Result struct {
	OverallScore   int                  `json:"overall_score"`
	Dimensions     map[string]Dimension `json:"dimensions"`
	ProjectStage   string               `json:"project_stage"`
	FormulaVersion string               `json:"formula_version"`
	Timestamp      time.Time            `json:"timestamp"`
}
