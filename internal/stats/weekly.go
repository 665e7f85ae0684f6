package stats

import (
	"time"

	"pulse-mcp/internal/isoweek"
	"pulse-mcp/internal/jira"

	"github.com/samber/lo"
)

// WeeklyStat is one ISO week's aggregated activity.
type WeeklyStat struct {
	Week           string    `json:"week"`
	WeekStart      time.Time `json:"week_start"`
	ItemsCreated   int       `json:"items_created"`
	ItemsResolved  int       `json:"items_resolved"`
	BugsCreated    int       `json:"bugs_created"`
	BugsResolved   int       `json:"bugs_resolved"`
	PointsCreated  float64   `json:"points_created"`
	PointsResolved float64   `json:"points_resolved"`
	NetChange      int       `json:"net_change"`
	CumulativeOpen int       `json:"cumulative_open"`
}

// BuildWeeklyStats buckets issue activity into contiguous ISO weeks between
// from and to. Weeks without activity are zero-filled so the result is always
// gap-free and sorted ascending by week label.
func BuildWeeklyStats(issues []jira.Issue, from, to time.Time, includePartialCurrent bool) []WeeklyStat {
	labels := isoweek.Range(from, to, includePartialCurrent)
	if len(labels) == 0 {
		return nil
	}

	byLabel := make(map[string]*WeeklyStat, len(labels))
	ordered := make([]*WeeklyStat, 0, len(labels))
	for _, label := range labels {
		ws := &WeeklyStat{Week: label}
		if year, week, ok := isoweek.Parse(label); ok {
			ws.WeekStart = isoweek.StartDate(year, week)
		}
		byLabel[label] = ws
		ordered = append(ordered, ws)
	}

	for _, issue := range issues {
		if issue.IsSubtask {
			continue
		}

		if ws, ok := byLabel[isoweek.Label(issue.Created)]; ok {
			ws.ItemsCreated++
			ws.PointsCreated += issue.StoryPoints
			if issue.IsBug() {
				ws.BugsCreated++
			}
		}

		if issue.ResolutionDate != nil {
			if ws, ok := byLabel[isoweek.Label(*issue.ResolutionDate)]; ok {
				ws.ItemsResolved++
				ws.PointsResolved += issue.StoryPoints
				if issue.IsBug() {
					ws.BugsResolved++
				}
			}
		}
	}

	open := 0
	for _, ws := range ordered {
		ws.NetChange = ws.ItemsCreated - ws.ItemsResolved
		open += ws.NetChange
		ws.CumulativeOpen = open
	}

	return lo.Map(ordered, func(ws *WeeklyStat, _ int) WeeklyStat { return *ws })
}

// BuildBugWeeklyStats aggregates only the defect family, so ItemsCreated and
// BugsCreated coincide and CumulativeOpen tracks the open bug count.
func BuildBugWeeklyStats(issues []jira.Issue, from, to time.Time, includePartialCurrent bool) []WeeklyStat {
	bugs := lo.Filter(issues, func(i jira.Issue, _ int) bool { return i.IsBug() })
	return BuildWeeklyStats(bugs, from, to, includePartialCurrent)
}
