package jira

import (
	"github.com/rs/zerolog/log"
)

// MapIssue transforms a Jira DTO into a Domain Issue.
// A missing or unparseable creation date invalidates the record (second return
// false); other malformed dates degrade to zero values.
func MapIssue(item IssueDTO) (Issue, bool) {
	issue := Issue{
		Key:            item.Key,
		IssueType:      item.Fields.IssueType.Name,
		Status:         item.Fields.Status.Name,
		StatusCategory: item.Fields.Status.StatusCategory.Key,
		Resolution:     item.Fields.Resolution.Name,
		IsSubtask:      item.Fields.IssueType.Subtask,
	}

	for i := 0; i < len(issue.Key); i++ {
		if issue.Key[i] == '-' {
			issue.ProjectKey = issue.Key[:i]
			break
		}
	}

	created, err := ParseTime(item.Fields.Created)
	if err != nil {
		return issue, false
	}
	issue.Created = created

	if item.Fields.ResolutionDate != "" {
		if t, err := ParseTime(item.Fields.ResolutionDate); err == nil {
			issue.ResolutionDate = &t
		} else {
			log.Warn().Str("key", item.Key).Str("value", item.Fields.ResolutionDate).Msg("Unparseable resolution date, treating issue as open")
		}
	}

	if t, err := ParseTime(item.Fields.Updated); err == nil {
		issue.Updated = t
	}

	// Dynamic Fallback: terminal status category without a resolution date
	if issue.ResolutionDate == nil && issue.StatusCategory == "done" && !issue.Updated.IsZero() {
		issue.ResolutionDate = &issue.Updated
	}

	if pts, ok := item.Fields.StoryPoints.(float64); ok {
		issue.StoryPoints = pts
	}

	return issue, true
}

// MapIssues converts a batch of DTOs, logging and skipping malformed records
// instead of failing the batch.
func MapIssues(items []IssueDTO) []Issue {
	issues := make([]Issue, 0, len(items))
	for _, item := range items {
		issue, ok := MapIssue(item)
		if !ok {
			log.Warn().Str("key", item.Key).Str("created", item.Fields.Created).Msg("Skipping issue with unparseable creation date")
			continue
		}
		issues = append(issues, issue)
	}
	return issues
}
