package jira

import (
	"time"
)

// Issue represents the subset of Jira issue data the analytics core consumes.
type Issue struct {
	Key            string
	ProjectKey     string
	IssueType      string
	Status         string
	StatusCategory string
	Resolution     string
	Created        time.Time
	Updated        time.Time
	ResolutionDate *time.Time
	StoryPoints    float64
	IsSubtask      bool
}

// IsBug reports whether the issue belongs to the defect family.
func (i Issue) IsBug() bool {
	switch i.IssueType {
	case "Bug", "Defect", "Incident":
		return true
	}
	return false
}

// Client is the interface for interacting with Jira.
type Client interface {
	SearchIssues(jql string, startAt int, maxResults int) ([]Issue, int, error)
	SearchAllIssues(jql string, limit int) ([]Issue, error)
}

// Config holds the authentication and connection settings for Jira.
type Config struct {
	BaseURL string

	// Data Center Cookies
	XsrfToken  string
	SessionID  string
	RememberMe string

	// Personal Access Token (preferred when set)
	Token string

	// Performance Settings
	RequestDelay time.Duration
	PageSize     int
}

// NewClient creates a new Jira client based on the provided configuration.
func NewClient(cfg Config) Client {
	return NewDataCenterClient(cfg)
}
