package stats

import (
	"testing"
	"time"

	"pulse-mcp/internal/jira"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time { return &t }

func TestBuildWeeklyStats(t *testing.T) {
	issues := []jira.Issue{
		{
			Key:            "PRJ-1",
			IssueType:      "Bug",
			Created:        day(2025, time.June, 3),
			ResolutionDate: timePtr(day(2025, time.June, 10)),
		},
		{
			Key:         "PRJ-2",
			IssueType:   "Story",
			Created:     day(2025, time.June, 4),
			StoryPoints: 5,
		},
		{
			Key:       "PRJ-3",
			IssueType: "Sub-task",
			Created:   day(2025, time.June, 4),
			IsSubtask: true,
		},
		{
			Key:            "PRJ-4",
			IssueType:      "Task",
			Created:        day(2025, time.May, 1), // outside the range
			StoryPoints:    3,
			ResolutionDate: timePtr(day(2025, time.June, 17)),
		},
	}

	weekly := BuildWeeklyStats(issues, day(2025, time.June, 2), day(2025, time.June, 20), true)

	if len(weekly) != 3 {
		t.Fatalf("Expected 3 weeks, got %d", len(weekly))
	}
	for i, label := range []string{"2025-W23", "2025-W24", "2025-W25"} {
		if weekly[i].Week != label {
			t.Errorf("Week %d: expected %s, got %s", i, label, weekly[i].Week)
		}
	}

	w23 := weekly[0]
	if w23.ItemsCreated != 2 || w23.BugsCreated != 1 {
		t.Errorf("W23: expected 2 created / 1 bug, got %d/%d", w23.ItemsCreated, w23.BugsCreated)
	}
	if w23.PointsCreated != 5 {
		t.Errorf("W23: expected 5 points created, got %v", w23.PointsCreated)
	}
	if w23.CumulativeOpen != 2 {
		t.Errorf("W23: expected cumulative open 2, got %d", w23.CumulativeOpen)
	}

	w24 := weekly[1]
	if w24.ItemsCreated != 0 || w24.ItemsResolved != 1 || w24.BugsResolved != 1 {
		t.Errorf("W24: unexpected counts: %+v", w24)
	}
	if w24.NetChange != -1 || w24.CumulativeOpen != 1 {
		t.Errorf("W24: expected net -1 / open 1, got %d/%d", w24.NetChange, w24.CumulativeOpen)
	}

	w25 := weekly[2]
	if w25.ItemsResolved != 1 || w25.PointsResolved != 3 {
		t.Errorf("W25: unexpected resolution counts: %+v", w25)
	}
	if w25.CumulativeOpen != 0 {
		t.Errorf("W25: expected cumulative open 0, got %d", w25.CumulativeOpen)
	}

	if !w23.WeekStart.Equal(time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("W23: expected week start Monday June 2, got %v", w23.WeekStart)
	}
}

func TestBuildWeeklyStatsZeroFill(t *testing.T) {
	weekly := BuildWeeklyStats(nil, day(2025, time.June, 2), day(2025, time.June, 20), true)

	if len(weekly) != 3 {
		t.Fatalf("Expected 3 zero-filled weeks, got %d", len(weekly))
	}
	for _, ws := range weekly {
		if ws.ItemsCreated != 0 || ws.ItemsResolved != 0 || ws.CumulativeOpen != 0 {
			t.Errorf("Expected all-zero week, got %+v", ws)
		}
	}
}

func TestBuildBugWeeklyStats(t *testing.T) {
	issues := []jira.Issue{
		{Key: "PRJ-1", IssueType: "Bug", Created: day(2025, time.June, 3)},
		{Key: "PRJ-2", IssueType: "Story", Created: day(2025, time.June, 3)},
		{Key: "PRJ-3", IssueType: "Defect", Created: day(2025, time.June, 4)},
	}

	weekly := BuildBugWeeklyStats(issues, day(2025, time.June, 2), day(2025, time.June, 8), true)

	if len(weekly) != 1 {
		t.Fatalf("Expected 1 week, got %d", len(weekly))
	}
	if weekly[0].ItemsCreated != 2 || weekly[0].BugsCreated != 2 {
		t.Errorf("Expected only the defect family counted, got %+v", weekly[0])
	}
}
