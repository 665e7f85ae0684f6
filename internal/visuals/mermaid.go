package visuals

import (
	"fmt"
	"math"
	"strings"

	"pulse-mcp/internal/health"
	"pulse-mcp/internal/stats"
)

// GenerateWeeklyActivityChart creates a Mermaid xychart-beta showing created
// vs resolved items per ISO week.
func GenerateWeeklyActivityChart(weekly []stats.WeeklyStat) string {
	if len(weekly) == 0 {
		return ""
	}

	var labels []string
	var created []string
	var resolved []string

	maxVal := 0
	for _, ws := range weekly {
		labels = append(labels, fmt.Sprintf("\"%s\"", ws.Week))
		created = append(created, fmt.Sprintf("%d", ws.ItemsCreated))
		resolved = append(resolved, fmt.Sprintf("%d", ws.ItemsResolved))
		if ws.ItemsCreated > maxVal {
			maxVal = ws.ItemsCreated
		}
		if ws.ItemsResolved > maxVal {
			maxVal = ws.ItemsResolved
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Weekly Activity (Created vs Resolved)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Items\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(resolved, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(created, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateBugBacklogChart creates a Mermaid line chart of the open bug count
// over time, from the bug-only weekly series.
func GenerateBugBacklogChart(bugWeekly []stats.WeeklyStat) string {
	if len(bugWeekly) == 0 {
		return ""
	}

	var labels []string
	var open []string

	maxVal := 0
	for _, ws := range bugWeekly {
		labels = append(labels, fmt.Sprintf("\"%s\"", ws.Week))
		open = append(open, fmt.Sprintf("%d", ws.CumulativeOpen))
		if ws.CumulativeOpen > maxVal {
			maxVal = ws.CumulativeOpen
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Open Bug Backlog\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Open Bugs\" 0 --> %d\n", int(math.Ceil(float64(maxVal)*1.2))))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(open, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateHealthDimensionsChart creates a Mermaid bar chart of the six health
// dimension scores. Zero-weight dimensions are labeled as having no data.
func GenerateHealthDimensionsChart(result health.Result) string {
	order := []string{"delivery", "predictability", "quality", "efficiency", "sustainability", "financial"}

	var labels []string
	var scores []string

	for _, name := range order {
		dim, ok := result.Dimensions[name]
		if !ok {
			continue
		}
		label := name
		if dim.Weight == 0 {
			label = name + "_(no_data)"
		}
		labels = append(labels, fmt.Sprintf("\"%s\"", label))
		scores = append(scores, fmt.Sprintf("%.0f", dim.Score))
	}
	if len(labels) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Project Health: %d (%s)\"\n", result.OverallScore, result.ProjectStage))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"Score\" 0 --> 100\n")
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(scores, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateForecastChart creates a Mermaid bar chart of the three-point bug
// resolution estimate. Empty when the forecast carries no data.
func GenerateForecastChart(fc stats.BugForecast) string {
	if fc.InsufficientData || fc.PessimisticWeeks == 0 {
		return ""
	}

	labels := []string{
		"\"Optimistic\"",
		"\"Most Likely\"",
		"\"Pessimistic\"",
	}
	values := []string{
		fmt.Sprintf("%d", fc.OptimisticWeeks),
		fmt.Sprintf("%d", fc.MostLikelyWeeks),
		fmt.Sprintf("%d", fc.PessimisticWeeks),
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Bug Resolution Forecast (%.1f bugs/week)\"\n", fc.AvgClosureRate))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Weeks to Clear\" 0 --> %d\n", int(math.Ceil(float64(fc.PessimisticWeeks)*1.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}
