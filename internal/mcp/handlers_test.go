package mcp

import (
	"testing"
	"time"

	"pulse-mcp/internal/jira"
	"pulse-mcp/internal/snapshot"
	"pulse-mcp/internal/stats"
)

// stubClient serves a canned issue list for every search.
type stubClient struct {
	issues []jira.Issue
	jql    string
}

func (c *stubClient) SearchIssues(jql string, startAt, maxResults int) ([]jira.Issue, int, error) {
	c.jql = jql
	return c.issues, len(c.issues), nil
}

func (c *stubClient) SearchAllIssues(jql string, limit int) ([]jira.Issue, error) {
	c.jql = jql
	return c.issues, nil
}

// memBackend is a throwaway in-memory snapshot backend.
type memBackend struct {
	data map[string]snapshot.Collection
}

func (m *memBackend) Load(workspaceID string) (snapshot.Collection, error) {
	if col, ok := m.data[workspaceID]; ok {
		return col.Clone(), nil
	}
	return snapshot.Collection{}, nil
}

func (m *memBackend) Store(workspaceID string, col snapshot.Collection) error {
	if m.data == nil {
		m.data = map[string]snapshot.Collection{}
	}
	m.data[workspaceID] = col.Clone()
	return nil
}

func testIssues(now time.Time) []jira.Issue {
	resolved := func(created, res time.Time) *time.Time { return &res }
	var issues []jira.Issue
	// Steady throughput: 2 items created and resolved per week for 8 weeks,
	// one of them a bug.
	for w := 10; w >= 3; w-- {
		created := now.AddDate(0, 0, -w*7)
		res := created.AddDate(0, 0, 5)
		issues = append(issues,
			jira.Issue{
				Key:            "PRJ-s" + created.Format("0102"),
				IssueType:      "Story",
				Created:        created,
				StoryPoints:    3,
				ResolutionDate: resolved(created, res),
			},
			jira.Issue{
				Key:            "PRJ-b" + created.Format("0102"),
				IssueType:      "Bug",
				Created:        created,
				ResolutionDate: resolved(created, res),
			},
		)
	}
	// A lingering open bug.
	issues = append(issues, jira.Issue{
		Key:       "PRJ-open",
		IssueType: "Bug",
		Created:   now.AddDate(0, 0, -30),
	})
	return issues
}

func newTestServer(issues []jira.Issue) (*Server, *memBackend) {
	backend := &memBackend{}
	store := snapshot.NewStore(backend, snapshot.NewCollectionCache(), "PRJ")
	return NewServer(&stubClient{issues: issues}, store, stats.InsightThresholds{}), backend
}

func TestHandleProjectHealth(t *testing.T) {
	s, backend := newTestServer(testIssues(time.Now()))

	data, err := s.handleProjectHealth(toolRequest{projectKey: "PRJ", weeks: 8})
	if err != nil {
		t.Fatalf("handleProjectHealth failed: %v", err)
	}

	report, ok := data.(healthReport)
	if !ok {
		t.Fatalf("Expected healthReport, got %T", data)
	}
	if report.Health.OverallScore <= 0 || report.Health.OverallScore > 100 {
		t.Errorf("Overall score out of range: %d", report.Health.OverallScore)
	}
	if len(report.Health.Dimensions) != 6 {
		t.Errorf("Expected 6 dimensions, got %d", len(report.Health.Dimensions))
	}
	if report.Health.Dimensions["financial"].Weight != 0 {
		t.Error("Financial dimension should carry no weight without budget data")
	}
	if report.BugSummary.OpenBugs != 1 {
		t.Errorf("Expected 1 open bug, got %d", report.BugSummary.OpenBugs)
	}
	if len(report.Weekly) == 0 {
		t.Error("Expected a weekly series in the report")
	}

	// The batch flush must have landed in the backend.
	col, err := backend.Load("PRJ")
	if err != nil {
		t.Fatalf("backend.Load failed: %v", err)
	}
	if len(col) == 0 {
		t.Error("Expected persisted snapshots after a health run")
	}
}

func TestHandleProjectHealthRequiresProjectKey(t *testing.T) {
	s, _ := newTestServer(nil)

	if _, err := s.handleProjectHealth(toolRequest{weeks: 8}); err == nil {
		t.Error("Expected an error without project_key")
	}
}

func TestHandleBugForecast(t *testing.T) {
	s, _ := newTestServer(testIssues(time.Now()))

	data, err := s.handleBugForecast(toolRequest{projectKey: "PRJ", weeks: 8})
	if err != nil {
		t.Fatalf("handleBugForecast failed: %v", err)
	}

	payload := data.(map[string]interface{})
	forecast := payload["forecast"].(stats.BugForecast)
	if forecast.InsufficientData {
		t.Error("Expected a forecast with 8 weeks of closures")
	}
	if forecast.MostLikelyWeeks < forecast.OptimisticWeeks ||
		forecast.PessimisticWeeks < forecast.MostLikelyWeeks {
		t.Errorf("Forecast ordering violated: %+v", forecast)
	}
}

func TestHandleQualityInsightsEmptyProject(t *testing.T) {
	s, _ := newTestServer(nil)

	data, err := s.handleQualityInsights(toolRequest{projectKey: "PRJ", weeks: 8})
	if err != nil {
		t.Fatalf("handleQualityInsights failed: %v", err)
	}

	payload := data.(map[string]interface{})
	insights := payload["insights"].([]stats.Insight)
	if len(insights) != 0 {
		t.Errorf("Expected no insights for an empty project, got %v", insights)
	}
}

func TestHandleCleanupSnapshots(t *testing.T) {
	s, _ := newTestServer(testIssues(time.Now()))

	if _, err := s.handleProjectHealth(toolRequest{projectKey: "PRJ", weeks: 8}); err != nil {
		t.Fatalf("handleProjectHealth failed: %v", err)
	}

	data, err := s.handleCleanupSnapshots(map[string]interface{}{"weeks_to_keep": 2.0})
	if err != nil {
		t.Fatalf("handleCleanupSnapshots failed: %v", err)
	}

	payload := data.(map[string]interface{})
	if payload["weeks_kept"] != 2 {
		t.Errorf("Expected weeks_kept 2, got %v", payload["weeks_kept"])
	}
}

func TestToolArgsDefaults(t *testing.T) {
	req := toolArgs(map[string]interface{}{"project_key": "PRJ"})
	if req.weeks != defaultWindowWeeks {
		t.Errorf("Expected default window, got %d", req.weeks)
	}
	if req.includePartialCurrent {
		t.Error("Partial current week should default to excluded")
	}

	req = toolArgs(map[string]interface{}{
		"project_key":             "PRJ",
		"weeks":                   4.0,
		"include_partial_current": true,
	})
	if req.weeks != 4 || !req.includePartialCurrent {
		t.Errorf("Arguments not parsed: %+v", req)
	}
}
