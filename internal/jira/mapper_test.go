package jira

import (
	"testing"
)

func TestMapIssue_Basic(t *testing.T) {
	dto := IssueDTO{Key: "PROJ-42"}
	dto.Fields.IssueType.Name = "Bug"
	dto.Fields.Status.Name = "Done"
	dto.Fields.Status.StatusCategory.Key = "done"
	dto.Fields.Resolution.Name = "Fixed"
	dto.Fields.Created = "2024-03-04T10:00:00.000+0000"
	dto.Fields.Updated = "2024-03-08T10:00:00.000+0000"
	dto.Fields.ResolutionDate = "2024-03-08T10:00:00.000+0000"
	dto.Fields.StoryPoints = 3.0

	issue, ok := MapIssue(dto)
	if !ok {
		t.Fatal("Expected issue to map successfully")
	}
	if issue.ProjectKey != "PROJ" {
		t.Errorf("Expected project key PROJ, got %s", issue.ProjectKey)
	}
	if issue.ResolutionDate == nil {
		t.Fatal("Expected resolution date to be set")
	}
	if issue.StoryPoints != 3.0 {
		t.Errorf("Expected 3 story points, got %f", issue.StoryPoints)
	}
	if !issue.IsBug() {
		t.Error("Expected Bug issue type to classify as bug")
	}
}

func TestMapIssues_SkipsUnparseableCreated(t *testing.T) {
	good := IssueDTO{Key: "PROJ-1"}
	good.Fields.Created = "2024-03-04T10:00:00.000+0000"

	bad := IssueDTO{Key: "PROJ-2"}
	bad.Fields.Created = "not-a-date"

	issues := MapIssues([]IssueDTO{good, bad})
	if len(issues) != 1 {
		t.Fatalf("Expected 1 mapped issue, got %d", len(issues))
	}
	if issues[0].Key != "PROJ-1" {
		t.Errorf("Expected PROJ-1 to survive, got %s", issues[0].Key)
	}
}

func TestMapIssue_DoneCategoryFallback(t *testing.T) {
	dto := IssueDTO{Key: "PROJ-3"}
	dto.Fields.Created = "2024-03-04T10:00:00.000+0000"
	dto.Fields.Updated = "2024-03-10T10:00:00.000+0000"
	dto.Fields.Status.StatusCategory.Key = "done"

	issue, ok := MapIssue(dto)
	if !ok {
		t.Fatal("Expected issue to map successfully")
	}
	if issue.ResolutionDate == nil {
		t.Fatal("Expected done-category issue without resolutiondate to fall back to updated")
	}
	if !issue.ResolutionDate.Equal(issue.Updated) {
		t.Errorf("Expected fallback resolution date %v, got %v", issue.Updated, *issue.ResolutionDate)
	}
}
