package importer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// CheckResult is the outcome of one availability probe.
type CheckResult struct {
	AdapterID string
	URL       string
	Status    int
	Err       string
}

// OK reports whether the source answered with a 2xx or 3xx status.
func (r CheckResult) OK() bool { return r.Status >= 200 && r.Status < 400 }

// Checker performs HEAD requests against the registered sources, either once
// or on a fixed interval, and records their availability.
type Checker struct {
	sources  *SourceDB
	logger   *slog.Logger
	interval time.Duration
	client   *http.Client
}

// NewChecker creates a Checker that will verify source URLs every interval.
func NewChecker(sources *SourceDB, logger *slog.Logger, interval time.Duration) *Checker {
	return &Checker{
		sources:  sources,
		logger:   logger,
		interval: interval,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Start runs an immediate check then repeats every interval until ctx is cancelled.
func (c *Checker) Start(ctx context.Context) {
	c.CheckAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll probes every source URL, persists each result and returns them
// in adapter order.
func (c *Checker) CheckAll(ctx context.Context) []CheckResult {
	sources, err := c.sources.ListSources()
	if err != nil {
		c.logger.Error("source check: list sources", "error", err)
		return nil
	}

	results := make([]CheckResult, 0, len(sources))
	var failed int
	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}

		res := CheckResult{AdapterID: src.AdapterID, URL: src.SourceURL}
		status, checkErr := c.checkOne(ctx, src.SourceURL)
		res.Status = status
		if checkErr != nil {
			res.Err = checkErr.Error()
		}

		if err := c.sources.UpdateCheck(src.AdapterID, res.Status, res.Err); err != nil {
			c.logger.Error("source check: record result", "adapter", src.AdapterID, "error", err)
		}
		if !res.OK() {
			failed++
			c.logger.Warn("source unreachable",
				"adapter", src.AdapterID,
				"url", src.SourceURL,
				"status", res.Status,
				"error", res.Err,
			)
		}
		results = append(results, res)
	}

	if len(results) > 0 {
		c.logger.Info("source check complete", "total", len(results), "ok", len(results)-failed, "failed", failed)
	}
	return results
}

// checkOne performs a single HEAD request and returns the HTTP status code.
// On network error, status is 0.
func (c *Checker) checkOne(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HEAD %s: %w", url, err)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
