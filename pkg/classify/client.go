package classify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/teslashibe/go-plantvision/internal/httpc"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// Client is the HTTP client for the Classification Service.
type Client struct {
	url       string
	healthURL string
	timeout   time.Duration
	http      *http.Client
	logger    *slog.Logger
	now       func() time.Time
}

// NewClient creates a new classification client.
func NewClient(opts ...Option) *Client {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpc.NewClient(cfg.Timeout)
	}
	health := cfg.HealthURL
	if health == "" {
		health = deriveHealthURL(cfg.URL)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		url:       cfg.URL,
		healthURL: health,
		timeout:   cfg.Timeout,
		http:      hc,
		logger:    logger.With("component", "classify.client"),
		now:       time.Now,
	}
}

// URL returns the classify endpoint.
func (c *Client) URL() string { return c.url }

// Classify posts a JPEG frame and parses the prediction. Any error is a
// *Failure.
func (c *Client) Classify(ctx context.Context, jpeg []byte) (*Classification, error) {
	if len(jpeg) == 0 {
		return nil, &Failure{Kind: KindEncode, Message: "empty frame"}
	}

	payload, err := json.Marshal(Request{Image: base64.StdEncoding.EncodeToString(jpeg)})
	if err != nil {
		return nil, NewFailure(KindEncode, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, NewFailure(KindNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportFailure(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, transportFailure(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusFailure(resp.StatusCode, body)
	}

	result, err := parseClassification(body, c.now())
	if err != nil {
		return nil, err
	}

	c.logger.Debug("classified frame",
		"plant", result.Plant,
		"confidence", result.Confidence,
		"latency_ms", c.now().Sub(start).Milliseconds())
	return result, nil
}

// Health queries the service status endpoint.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	if c.healthURL == "" {
		return nil, &Failure{Kind: KindNetwork, Message: "no health endpoint for " + c.url}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return nil, NewFailure(KindNetwork, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportFailure(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, transportFailure(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusFailure(resp.StatusCode, body)
	}

	var h Health
	if err := json.Unmarshal(body, &h); err != nil {
		return nil, NewFailure(KindDecode, fmt.Errorf("decode health: %w", err))
	}
	return &h, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// parseClassification builds a Classification from a 200 response body.
// Both top and confidence must be present.
func parseClassification(body []byte, now time.Time) (*Classification, error) {
	var fields struct {
		Top        *string  `json:"top"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, NewFailure(KindDecode, fmt.Errorf("decode response: %w", err))
	}
	if fields.Top == nil || *fields.Top == "" {
		return nil, NewFailure(KindDecode, errors.New("response has no top label"))
	}
	if fields.Confidence == nil {
		return nil, NewFailure(KindDecode, errors.New("response has no confidence"))
	}
	conf := *fields.Confidence
	if math.IsNaN(conf) || conf < 0 || conf > 1 {
		return nil, NewFailure(KindDecode, fmt.Errorf("confidence %v out of range", conf))
	}

	raw := make(json.RawMessage, len(body))
	copy(raw, body)

	return &Classification{
		Plant:      *fields.Top,
		Confidence: conf,
		Timestamp:  now,
		Raw:        raw,
	}, nil
}

func statusFailure(code int, body []byte) *Failure {
	f := &Failure{Kind: KindStatus, StatusCode: code}
	var er ErrorResponse
	if json.Unmarshal(body, &er) == nil && er.Error != "" {
		f.Message = er.Error
	}
	return f
}

func deriveHealthURL(classifyURL string) string {
	u, err := url.Parse(classifyURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.ResolveReference(&url.URL{Path: "health"}).String()
}
