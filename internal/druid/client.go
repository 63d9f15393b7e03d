package druid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ClientOptions tunes the broker client.
type ClientOptions struct {
	Timeout        time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	Logger         *slog.Logger
}

// Client issues native JSON queries against a broker endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewClient creates a broker client for the given base URL.
func NewClient(baseURL string, opts ...ClientOptions) *Client {
	options := ClientOptions{Timeout: 60 * time.Second, RateLimitRPS: 10, RateLimitBurst: 20}
	if len(opts) > 0 {
		options = opts[0]
	}
	if options.Timeout <= 0 {
		options.Timeout = 60 * time.Second
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if options.RateLimitRPS > 0 {
		burst := options.RateLimitBurst
		if burst <= 0 {
			burst = int(options.RateLimitRPS)
		}
		limiter = rate.NewLimiter(rate.Limit(options.RateLimitRPS), burst)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: options.Timeout},
		limiter: limiter,
		log:     logger,
	}
}

// GroupBy runs a groupBy query and returns the result rows.
func (c *Client) GroupBy(ctx context.Context, q *GroupByQuery) ([]GroupByRow, error) {
	if q.Context == nil {
		q.Context = map[string]string{}
	}
	if q.Context["queryId"] == "" {
		q.Context["queryId"] = uuid.New().String()
	}

	var rows []GroupByRow
	if err := c.post(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("groupBy query on %q: %w", q.DataSource, err)
	}
	c.log.Debug("groupBy query complete",
		"dataSource", q.DataSource,
		"queryId", q.Context["queryId"],
		"rows", len(rows))
	return rows, nil
}

// SegmentMetadata runs a segmentMetadata query and returns the analyses.
func (c *Client) SegmentMetadata(ctx context.Context, q *SegmentMetadataQuery) ([]SegmentAnalysis, error) {
	var analyses []SegmentAnalysis
	if err := c.post(ctx, q, &analyses); err != nil {
		return nil, fmt.Errorf("segmentMetadata query on %q: %w", q.DataSource, err)
	}
	return analyses, nil
}

func (c *Client) post(ctx context.Context, query interface{}, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	body, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/druid/v2/", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("broker returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
