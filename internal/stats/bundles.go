package stats

import (
	"time"

	"pulse-mcp/internal/health"
	"pulse-mcp/internal/jira"

	"github.com/samber/lo"
)

// CalculateFlowMetrics derives the flow bundle for the health calculator from
// resolved-issue history and the weekly series. Returns nil when there is no
// usable throughput history.
func CalculateFlowMetrics(issues []jira.Issue, weekly []WeeklyStat) *health.FlowMetrics {
	if len(weekly) == 0 {
		return nil
	}

	resolvedPerWeek := make([]float64, len(weekly))
	for i, ws := range weekly {
		resolvedPerWeek[i] = float64(ws.ItemsResolved)
	}

	throughput := Mean(resolvedPerWeek)
	if throughput == 0 {
		return nil
	}

	fm := &health.FlowMetrics{
		ThroughputPerWeek: ptr(Round2(throughput)),
		VelocityPerWeek:   ptr(Round2(throughput)),
		VelocityCV:        ptr(Round2(StdDev(resolvedPerWeek) / throughput)),
	}

	var flowDays []float64
	for _, issue := range issues {
		if issue.ResolutionDate == nil || issue.IsSubtask {
			continue
		}
		days := issue.ResolutionDate.Sub(issue.Created).Hours() / 24
		if days >= 0 {
			flowDays = append(flowDays, days)
		}
	}
	if len(flowDays) > 0 {
		fm.FlowTimeDays = ptr(Round1(CalculateMedianContinuous(flowDays)))
	}

	wip := lo.CountBy(issues, func(i jira.Issue) bool {
		return i.ResolutionDate == nil && !i.IsSubtask
	})
	fm.WIPCount = ptr(float64(wip))

	if mix := calculateWorkMix(issues); mix != nil {
		fm.WorkMix = mix
	}

	return fm
}

// calculateWorkMix splits resolved throughput into feature / defect / debt
// shares.
func calculateWorkMix(issues []jira.Issue) *health.WorkMix {
	var feature, defect, debt, total float64
	for _, issue := range issues {
		if issue.ResolutionDate == nil || issue.IsSubtask {
			continue
		}
		total++
		switch {
		case issue.IsBug():
			defect++
		case issue.IssueType == "Tech Debt" || issue.IssueType == "Technical Debt":
			debt++
		default:
			feature++
		}
	}
	if total == 0 {
		return nil
	}
	return &health.WorkMix{
		FeatureShare: feature / total,
		DefectShare:  defect / total,
		DebtShare:    debt / total,
	}
}

// CalculateDoraMetrics approximates the DORA bundle from issue history.
// Deployment events are not visible through the issue API, so delivery of a
// resolved item stands in for a deployment and defect inflow against resolved
// volume stands in for change failure rate. Returns nil with no resolved work.
func CalculateDoraMetrics(issues []jira.Issue, weekly []WeeklyStat) *health.DoraMetrics {
	if len(weekly) == 0 {
		return nil
	}

	totalResolved := 0
	totalBugsCreated := 0
	for _, ws := range weekly {
		totalResolved += ws.ItemsResolved
		totalBugsCreated += ws.BugsCreated
	}
	if totalResolved == 0 {
		return nil
	}

	dm := &health.DoraMetrics{
		DeploymentsPerWeek: ptr(Round2(float64(totalResolved) / float64(len(weekly)))),
	}

	cfr := float64(totalBugsCreated) / float64(totalResolved)
	if cfr > 1 {
		cfr = 1
	}
	dm.ChangeFailureRate = ptr(Round2(cfr))

	var leadHours []float64
	var repairHours []float64
	for _, issue := range issues {
		if issue.ResolutionDate == nil || issue.IsSubtask {
			continue
		}
		hours := issue.ResolutionDate.Sub(issue.Created).Hours()
		if hours < 0 {
			continue
		}
		leadHours = append(leadHours, hours)
		if issue.IsBug() {
			repairHours = append(repairHours, hours)
		}
	}
	if len(leadHours) > 0 {
		dm.LeadTimeHours = ptr(Round1(CalculateMedianContinuous(leadHours)))
	}
	if len(repairHours) > 0 {
		dm.MTTRHours = ptr(Round1(CalculateMedianContinuous(repairHours)))
	}

	return dm
}

// CalculateBugMetrics derives the defect bundle. capacityPerWeek sizes the
// density ratio; pass 0 to omit that signal.
func CalculateBugMetrics(issues []jira.Issue, capacityPerWeek float64, now time.Time) *health.BugMetrics {
	bugs := lo.Filter(issues, func(i jira.Issue, _ int) bool { return i.IsBug() && !i.IsSubtask })
	if len(bugs) == 0 {
		return nil
	}

	bm := &health.BugMetrics{TotalBugs: len(bugs)}
	var openAges []float64
	for _, b := range bugs {
		if b.ResolutionDate != nil {
			bm.ClosedBugs++
		} else {
			bm.OpenBugs++
			openAges = append(openAges, now.Sub(b.Created).Hours()/24)
		}
	}

	bm.ResolutionRate = ptr(Round2(float64(bm.ClosedBugs) / float64(bm.TotalBugs)))
	if capacityPerWeek > 0 {
		bm.DensityRatio = ptr(Round2(float64(bm.OpenBugs) / capacityPerWeek))
	}
	if len(openAges) > 0 {
		bm.AvgOpenAgeDays = ptr(Round1(Mean(openAges)))
	}

	return bm
}

// SummarizeBugs condenses bug counts into the insight engine's input shape.
func SummarizeBugs(issues []jira.Issue) BugSummary {
	var s BugSummary
	for _, issue := range issues {
		if !issue.IsBug() || issue.IsSubtask {
			continue
		}
		s.TotalBugs++
		if issue.ResolutionDate != nil {
			s.ClosedBugs++
		} else {
			s.OpenBugs++
		}
	}
	if s.TotalBugs > 0 {
		s.ResolutionRate = float64(s.ClosedBugs) / float64(s.TotalBugs)
	}
	return s
}

func ptr(v float64) *float64 {
	return &v
}
