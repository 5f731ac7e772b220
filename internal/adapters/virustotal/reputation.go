// Package virustotal implements the URL reputation oracle against the
// VirusTotal v3 REST API: submit a URL for analysis, then fetch the
// analysis stats by the URL-derived identifier.
package virustotal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mikey/scam-sentinel/internal/core"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Checker is an implementation of the ReputationChecker interface
type Checker struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	window     time.Duration
	cache      core.ReputationCache
	logger     *zap.Logger
}

// NewChecker creates a new reputation checker. quotaRequests is the hard
// cap of lookups per rolling window; the shared quota is guarded by a token
// bucket and exhaustion fails fast instead of queueing.
func NewChecker(
	baseURL string,
	apiKey string,
	timeout time.Duration,
	quotaRequests int,
	window time.Duration,
	cache core.ReputationCache,
	logger *zap.Logger,
) *Checker {
	if quotaRequests <= 0 {
		quotaRequests = 4
	}
	return &Checker{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Every(window/time.Duration(quotaRequests)), quotaRequests),
		window:     window,
		cache:      cache,
		logger:     logger,
	}
}

// analysisResponse is the subset of the VirusTotal URL object we consume
type analysisResponse struct {
	Data struct {
		Attributes struct {
			LastAnalysisStats struct {
				Malicious  int `json:"malicious"`
				Suspicious int `json:"suspicious"`
				Harmless   int `json:"harmless"`
				Undetected int `json:"undetected"`
			} `json:"last_analysis_stats"`
		} `json:"attributes"`
	} `json:"data"`
}

// Lookup fetches the reputation report for one URL. Cached results are
// served without touching the quota; a fresh lookup consumes exactly one
// quota token covering both steps of the submit/fetch flow.
func (c *Checker) Lookup(ctx context.Context, rawURL string) (*core.URLReport, error) {
	if report, ok := c.cache.Get(ctx, rawURL); ok {
		c.logger.Debug("Reputation cache hit", zap.String("url", rawURL))
		return report, nil
	}

	if err := c.reserveQuota(); err != nil {
		return nil, err
	}

	report, err := c.fetchAnalysis(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	// Pending reports are not cached so the next check retries the fetch
	if !report.Pending {
		c.cache.Set(ctx, rawURL, report)
	}
	return report, nil
}

// reserveQuota takes one token or fails fast with the wait duration
func (c *Checker) reserveQuota() error {
	reservation := c.limiter.Reserve()
	if !reservation.OK() {
		return &core.RateLimitError{RetryAfter: c.window}
	}
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return &core.RateLimitError{RetryAfter: delay}
	}
	return nil
}

// fetchAnalysis performs the GET-stats step, falling back to the submit
// step when the URL is unknown to the oracle
func (c *Checker) fetchAnalysis(ctx context.Context, rawURL string) (*core.URLReport, error) {
	endpoint := c.baseURL + "/urls/" + urlID(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build reputation request: %w", err)
	}
	req.Header.Set("x-apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reputation lookup failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var parsed analysisResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, fmt.Errorf("failed to parse reputation response: %w", err)
		}
		stats := parsed.Data.Attributes.LastAnalysisStats
		return &core.URLReport{
			URL:        rawURL,
			Malicious:  stats.Malicious,
			Suspicious: stats.Suspicious,
			Harmless:   stats.Harmless,
			Undetected: stats.Undetected,
		}, nil
	case http.StatusNotFound:
		return c.submitURL(ctx, rawURL)
	case http.StatusTooManyRequests:
		return nil, &core.RateLimitError{RetryAfter: c.window}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("reputation oracle returned status %d: %s", resp.StatusCode, string(body))
	}
}

// submitURL queues an unknown URL for analysis. Stats are not available
// yet, so the caller gets a pending report.
func (c *Checker) submitURL(ctx context.Context, rawURL string) (*core.URLReport, error) {
	form := url.Values{"url": {rawURL}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/urls", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build submit request: %w", err)
	}
	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("URL submission failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("URL submission returned status %d", resp.StatusCode)
	}

	c.logger.Debug("URL submitted for analysis", zap.String("url", rawURL))
	return &core.URLReport{URL: rawURL, Pending: true}, nil
}

// urlID derives the analysis identifier: base64url of the URL with the
// padding stripped, per the oracle's API contract
func urlID(rawURL string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(rawURL))
}
