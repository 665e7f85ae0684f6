package jira

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type dcClient struct {
	cfg        Config
	httpClient *http.Client

	throttleMu  sync.Mutex
	lastRequest time.Time
}

// NewDataCenterClient creates a client for Jira Data Center / Server instances.
func NewDataCenterClient(cfg Config) Client {
	if cfg.RequestDelay == 0 {
		cfg.RequestDelay = 2 * time.Second
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 100
	}
	return &dcClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

func (c *dcClient) throttle() {
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.cfg.RequestDelay {
		wait := c.cfg.RequestDelay - elapsed
		log.Debug().Dur("wait", wait).Msg("Throttling Jira request")
		time.Sleep(wait)
	}
	c.lastRequest = time.Now()
}

func (c *dcClient) authenticateRequest(req *http.Request) {
	// 1. Prioritize Personal Access Token (PAT)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.Token))
		return
	}

	// 2. Fallback to session cookies
	cookies := []struct {
		name  string
		value string
	}{
		{"atlassian.xsrf.token", c.cfg.XsrfToken},
		{"JSESSIONID", c.cfg.SessionID},
		{"seraph.rememberme.cookie", c.cfg.RememberMe},
	}

	var cookiePairs []string
	for _, cookie := range cookies {
		if cookie.value != "" {
			// Built manually to avoid net/http's strict RFC 6265 validation
			// which would drop valid Jira cookies containing double quotes.
			cookiePairs = append(cookiePairs, fmt.Sprintf("%s=%s", cookie.name, cookie.value))
		}
	}

	if len(cookiePairs) > 0 {
		req.Header.Set("Cookie", strings.Join(cookiePairs, "; "))
	}
}

// SearchIssues fetches a single page of mapped issues and the total hit count.
func (c *dcClient) SearchIssues(jql string, startAt int, maxResults int) ([]Issue, int, error) {
	resp, err := c.searchPage(jql, startAt, maxResults)
	if err != nil {
		return nil, 0, err
	}
	return MapIssues(resp.Issues), resp.Total, nil
}

// SearchAllIssues pages through the full result set up to limit issues.
// The first page establishes the total; remaining pages are fetched
// concurrently (the client-side throttle still serializes request starts).
func (c *dcClient) SearchAllIssues(jql string, limit int) ([]Issue, error) {
	pageSize := c.cfg.PageSize

	first, err := c.searchPage(jql, 0, pageSize)
	if err != nil {
		return nil, err
	}

	total := first.Total
	if limit > 0 && total > limit {
		total = limit
	}

	pageCount := (total + pageSize - 1) / pageSize
	pages := make([][]IssueDTO, pageCount)
	if pageCount > 0 {
		pages[0] = first.Issues
	}

	var g errgroup.Group
	g.SetLimit(4)
	for p := 1; p < pageCount; p++ {
		p := p
		g.Go(func() error {
			resp, err := c.searchPage(jql, p*pageSize, pageSize)
			if err != nil {
				return err
			}
			pages[p] = resp.Issues
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []IssueDTO
	for _, page := range pages {
		all = append(all, page...)
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	log.Info().Int("count", len(all)).Int("total", first.Total).Msg("Fetched issues from Jira")
	return MapIssues(all), nil
}

func (c *dcClient) searchPage(jql string, startAt int, maxResults int) (*SearchResponse, error) {
	c.throttle()

	params := url.Values{}
	params.Set("jql", jql)
	params.Set("startAt", fmt.Sprintf("%d", startAt))
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))
	params.Set("fields", "issuetype,status,resolution,resolutiondate,created,updated,customfield_10016")

	endpoint := fmt.Sprintf("%s/rest/api/2/search?%s", strings.TrimRight(c.cfg.BaseURL, "/"), params.Encode())

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.authenticateRequest(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jira search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("jira search returned %d: %s", resp.StatusCode, string(body))
	}

	var sr SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return &sr, nil
}
