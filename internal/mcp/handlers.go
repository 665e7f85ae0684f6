package mcp

import (
	"fmt"
	"time"

	"pulse-mcp/internal/health"
	"pulse-mcp/internal/isoweek"
	"pulse-mcp/internal/jira"
	"pulse-mcp/internal/snapshot"
	"pulse-mcp/internal/stats"
	"pulse-mcp/internal/visuals"

	"github.com/rs/zerolog/log"
)

// defaultWindowWeeks is the history window used when a tool call does not
// specify one.
const defaultWindowWeeks = 16

// issueFetchLimit caps how many issues a single analysis pulls from JIRA.
const issueFetchLimit = 5000

type toolRequest struct {
	projectKey            string
	weeks                 int
	includePartialCurrent bool
}

func toolArgs(args map[string]interface{}) toolRequest {
	req := toolRequest{weeks: defaultWindowWeeks}
	if v, ok := args["project_key"].(string); ok {
		req.projectKey = v
	}
	if v, ok := args["weeks"].(float64); ok && v > 0 {
		req.weeks = int(v)
	}
	if v, ok := args["include_partial_current"].(bool); ok {
		req.includePartialCurrent = v
	}
	return req
}

// fetchWindow pulls every issue touched inside the window plus all still-open
// ones, so completion and scope baselines see the full backlog.
func (s *Server) fetchWindow(req toolRequest) ([]jira.Issue, time.Time, time.Time, error) {
	if req.projectKey == "" {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("project_key is required")
	}

	to := time.Now()
	from := to.AddDate(0, 0, -req.weeks*7)

	jql := fmt.Sprintf(
		`project = "%s" AND (updated >= "%s" OR resolution is EMPTY) ORDER BY created ASC`,
		req.projectKey, from.Format("2006-01-02"),
	)
	issues, err := s.jira.SearchAllIssues(jql, issueFetchLimit)
	if err != nil {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("failed to fetch issues for %s: %w", req.projectKey, err)
	}

	log.Info().
		Str("project", req.projectKey).
		Int("issues", len(issues)).
		Int("weeks", req.weeks).
		Msg("Fetched analysis window")

	return issues, from, to, nil
}

// healthReport is the full payload returned by get_project_health.
type healthReport struct {
	ProjectKey string             `json:"project_key"`
	Health     health.Result      `json:"health"`
	Forecast   stats.BugForecast  `json:"bug_forecast"`
	Insights   []stats.Insight    `json:"insights"`
	BugSummary stats.BugSummary   `json:"bug_summary"`
	Weekly     []stats.WeeklyStat `json:"weekly_stats"`
	Charts     []string           `json:"charts,omitempty"`
}

func (s *Server) handleProjectHealth(req toolRequest) (interface{}, error) {
	issues, from, to, err := s.fetchWindow(req)
	if err != nil {
		return nil, err
	}

	weekly := stats.BuildWeeklyStats(issues, from, to, false)
	bugWeekly := stats.BuildBugWeeklyStats(issues, from, to, false)

	dashboard := stats.CalculateDashboardMetrics(weekly)
	flow := stats.CalculateFlowMetrics(issues, weekly)
	dora := stats.CalculateDoraMetrics(issues, weekly)

	capacity := 0.0
	if flow != nil && flow.ThroughputPerWeek != nil {
		capacity = *flow.ThroughputPerWeek
	}
	bug := stats.CalculateBugMetrics(issues, capacity, to)
	scope := stats.CalculateScopeMetrics(issues, from)

	// No budget feed exists on the JIRA side; the financial dimension simply
	// carries zero weight.
	result := health.Calculate(dashboard, dora, flow, bug, nil, scope)

	summary := stats.SummarizeBugs(issues)
	forecast := stats.ForecastBugResolution(summary.OpenBugs, bugWeekly, 0)
	insights := stats.GenerateQualityInsights(summary, bugWeekly, s.thresholds)

	if err := s.persistSnapshots(weekly, result, forecast); err != nil {
		// Snapshot trouble degrades history, not the live answer.
		log.Warn().Err(err).Msg("Failed to persist metric snapshots")
	}

	report := healthReport{
		ProjectKey: req.projectKey,
		Health:     result,
		Forecast:   forecast,
		Insights:   insights,
		BugSummary: summary,
		Weekly:     weekly,
	}
	if s.charts {
		for _, chart := range []string{
			visuals.GenerateHealthDimensionsChart(result),
			visuals.GenerateWeeklyActivityChart(weekly),
			visuals.GenerateBugBacklogChart(bugWeekly),
			visuals.GenerateForecastChart(forecast),
		} {
			if chart != "" {
				report.Charts = append(report.Charts, chart)
			}
		}
	}
	return report, nil
}

// persistSnapshots writes the computed weekly series and health outcome in a
// single batch flush.
func (s *Server) persistSnapshots(weekly []stats.WeeklyStat, result health.Result, forecast stats.BugForecast) error {
	if s.snapshots == nil {
		return nil
	}

	bw, err := s.snapshots.BeginBatch()
	if err != nil {
		return err
	}
	defer bw.Close()

	for _, ws := range weekly {
		fields := snapshot.Fields{
			"items_created":   ws.ItemsCreated,
			"items_resolved":  ws.ItemsResolved,
			"bugs_created":    ws.BugsCreated,
			"bugs_resolved":   ws.BugsResolved,
			"points_created":  ws.PointsCreated,
			"points_resolved": ws.PointsResolved,
			"net_change":      ws.NetChange,
			"cumulative_open": ws.CumulativeOpen,
		}
		if err := s.snapshots.Save(ws.Week, "weekly_activity", fields); err != nil {
			return err
		}
	}

	currentWeek := isoweek.Label(time.Now())
	healthFields := snapshot.Fields{
		"overall_score":   result.OverallScore,
		"project_stage":   result.ProjectStage,
		"formula_version": result.FormulaVersion,
	}
	for name, dim := range result.Dimensions {
		healthFields[name+"_score"] = dim.Score
		healthFields[name+"_weight"] = dim.Weight
	}

	if forecast.InsufficientData {
		if err := s.snapshots.Save(currentWeek, "project_health", healthFields); err != nil {
			return err
		}
	} else {
		fc := snapshot.ForecastInfo{
			Value:          forecast.AvgClosureRate,
			Confidence:     forecastConfidence(forecast),
			WeeksAvailable: stats.DefaultForecastWindowWeeks,
			Range: &snapshot.ForecastRange{
				Low:  float64(forecast.OptimisticWeeks),
				High: float64(forecast.PessimisticWeeks),
			},
		}
		if err := s.snapshots.SaveWithForecast(currentWeek, "project_health", healthFields, fc, "overall_score", false); err != nil {
			return err
		}
	}

	return bw.Commit()
}

// forecastConfidence shrinks as the optimistic/pessimistic band widens.
func forecastConfidence(fc stats.BugForecast) float64 {
	if fc.PessimisticWeeks == 0 {
		return 1
	}
	spread := float64(fc.PessimisticWeeks - fc.OptimisticWeeks)
	return stats.Round2(1 / (1 + spread/float64(fc.PessimisticWeeks)))
}

func (s *Server) handleBugForecast(req toolRequest) (interface{}, error) {
	issues, from, to, err := s.fetchWindow(req)
	if err != nil {
		return nil, err
	}

	bugWeekly := stats.BuildBugWeeklyStats(issues, from, to, false)
	summary := stats.SummarizeBugs(issues)
	forecast := stats.ForecastBugResolution(summary.OpenBugs, bugWeekly, 0)

	return map[string]interface{}{
		"project_key": req.projectKey,
		"bug_summary": summary,
		"forecast":    forecast,
	}, nil
}

func (s *Server) handleQualityInsights(req toolRequest) (interface{}, error) {
	issues, from, to, err := s.fetchWindow(req)
	if err != nil {
		return nil, err
	}

	bugWeekly := stats.BuildBugWeeklyStats(issues, from, to, false)
	summary := stats.SummarizeBugs(issues)
	insights := stats.GenerateQualityInsights(summary, bugWeekly, s.thresholds)

	return map[string]interface{}{
		"project_key": req.projectKey,
		"bug_summary": summary,
		"insights":    insights,
	}, nil
}

func (s *Server) handleWeeklyMetrics(req toolRequest) (interface{}, error) {
	issues, from, to, err := s.fetchWindow(req)
	if err != nil {
		return nil, err
	}

	weekly := stats.BuildWeeklyStats(issues, from, to, req.includePartialCurrent)

	payload := map[string]interface{}{
		"project_key":  req.projectKey,
		"weekly_stats": weekly,
	}
	if s.charts {
		if chart := visuals.GenerateWeeklyActivityChart(weekly); chart != "" {
			payload["chart"] = chart
		}
	}
	return payload, nil
}

func (s *Server) handleMetricHistory(args map[string]interface{}) (interface{}, error) {
	if s.snapshots == nil {
		return nil, fmt.Errorf("snapshot store is not configured")
	}

	metric, _ := args["metric"].(string)
	valueKey, _ := args["value_key"].(string)
	if metric == "" || valueKey == "" {
		return nil, fmt.Errorf("metric and value_key are required")
	}
	weeks := defaultWindowWeeks
	if v, ok := args["weeks"].(float64); ok && v > 0 {
		weeks = int(v)
	}

	// The running week is excluded so history only contains complete weeks.
	values, err := s.snapshots.GetLastNWeeksValues(metric, valueKey, weeks, isoweek.Label(time.Now()))
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"metric":    metric,
		"value_key": valueKey,
		"values":    values,
	}, nil
}

func (s *Server) handleCleanupSnapshots(args map[string]interface{}) (interface{}, error) {
	if s.snapshots == nil {
		return nil, fmt.Errorf("snapshot store is not configured")
	}

	weeksToKeep := snapshot.DefaultWeeksToKeep
	if v, ok := args["weeks_to_keep"].(float64); ok && v > 0 {
		weeksToKeep = int(v)
	}

	removed, err := s.snapshots.Cleanup(weeksToKeep)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"weeks_removed": removed,
		"weeks_kept":    weeksToKeep,
	}, nil
}
