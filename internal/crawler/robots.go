package crawler

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// RobotsReport summarizes a site's robots.txt for the advisory check.
// Rules are reported, never enforced; only the crawl-delay directive
// feeds back into request pacing.
type RobotsReport struct {
	Fetched    bool          `json:"fetched"`
	Disallowed []string      `json:"disallowed,omitempty"`
	Allowed    []string      `json:"allowed,omitempty"`
	CrawlDelay time.Duration `json:"crawl_delay,omitempty"`
	Sitemaps   []string      `json:"sitemaps,omitempty"`
}

// PathAllowed evaluates the reported rules against a path. Advisory
// only; the engine does not consult it when crawling.
func (r *RobotsReport) PathAllowed(path string) bool {
	if r == nil || !r.Fetched {
		return true
	}
	if path == "" {
		path = "/"
	}

	for _, pattern := range r.Disallowed {
		if !matchesRobotsPattern(path, pattern) {
			continue
		}
		// A longer, more specific allow rule overrides the disallow.
		for _, allow := range r.Allowed {
			if matchesRobotsPattern(path, allow) && len(allow) > len(pattern) {
				return true
			}
		}
		return false
	}
	return true
}

// RobotsFetcher retrieves and parses robots.txt once per job.
type RobotsFetcher struct {
	fetcher   *Fetcher
	userAgent string
}

func NewRobotsFetcher(fetcher *Fetcher, userAgent string) *RobotsFetcher {
	return &RobotsFetcher{fetcher: fetcher, userAgent: userAgent}
}

// Report fetches the site's robots.txt. It never fails the job: any
// fetch problem, including 404, yields an empty unfetched report.
func (r *RobotsFetcher) Report(ctx context.Context, seedURL string) *RobotsReport {
	u, err := url.Parse(seedURL)
	if err != nil {
		return &RobotsReport{}
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	result, failure := r.fetcher.Fetch(ctx, robotsURL)
	if failure != nil {
		return &RobotsReport{}
	}

	report := parseRobotsTxt(string(result.Body), r.userAgent)
	report.Fetched = true
	return report
}

// parseRobotsTxt reads the rule groups addressed to everyone or to
// this crawler's user agent.
func parseRobotsTxt(content, userAgent string) *RobotsReport {
	report := &RobotsReport{}
	agentToken := strings.ToLower(userAgent)

	scanner := bufio.NewScanner(strings.NewReader(content))
	inGroup := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		directive := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])

		switch directive {
		case "user-agent":
			agent := strings.ToLower(value)
			inGroup = agent == "*" || (agent != "" && strings.Contains(agentToken, agent))

		case "disallow":
			if inGroup && value != "" {
				report.Disallowed = append(report.Disallowed, value)
			}

		case "allow":
			if inGroup && value != "" {
				report.Allowed = append(report.Allowed, value)
			}

		case "crawl-delay":
			if inGroup {
				if delay, err := time.ParseDuration(value + "s"); err == nil {
					report.CrawlDelay = delay
				}
			}

		case "sitemap":
			report.Sitemaps = append(report.Sitemaps, value)
		}
	}

	return report
}

// matchesRobotsPattern checks a path against one robots.txt pattern,
// supporting * wildcards and the $ end anchor.
func matchesRobotsPattern(path, pattern string) bool {
	if strings.Contains(pattern, "*") {
		parts := strings.Split(pattern, "*")
		if !strings.HasPrefix(path, parts[0]) {
			return false
		}
		remaining := path[len(parts[0]):]
		for _, part := range parts[1:] {
			if part == "" {
				continue
			}
			idx := strings.Index(remaining, part)
			if idx == -1 {
				return false
			}
			remaining = remaining[idx+len(part):]
		}
		return true
	}

	if strings.HasSuffix(pattern, "$") {
		return path == strings.TrimSuffix(pattern, "$")
	}

	return strings.HasPrefix(path, pattern)
}
