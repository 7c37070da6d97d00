package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultExternalTimeout bounds a call when no timeout is configured.
const DefaultExternalTimeout = 5 * time.Second

const maxResponseBytes = 1 << 20

// ExternalScore is a validated response from the external scoring service.
type ExternalScore struct {
	Score         float64
	RiskLevel     RiskLevel
	CredibleClass *float64
}

// ExternalScorer scores a feature set remotely.
type ExternalScorer interface {
	Score(ctx context.Context, features Features) (*ExternalScore, error)
}

// ServiceError is any failure of the external call: transport, timeout,
// non-2xx status or an unusable response body.
type ServiceError struct {
	StatusCode int
	Message    string
	// Detail is extra context for logs, such as the title of an HTML error page.
	Detail string
	Err    error
}

func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("external scoring service returned HTTP %d: %s", e.StatusCode, e.Message)
	}
	return "external scoring service call failed: " + e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Reason is the short failure description stored with fallback scores.
func (e *ServiceError) Reason() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	if e.Message == "" {
		return "unknown error"
	}
	return e.Message
}

// ExternalClient calls POST {baseURL}/score on the external scoring service.
type ExternalClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	monitor    *HealthMonitor
	tracer     trace.Tracer
	observe    func(ok bool, elapsed time.Duration)
}

// NewExternalClient creates a client for baseURL. A non-positive timeout uses
// DefaultExternalTimeout. monitor may be nil.
func NewExternalClient(baseURL string, timeout time.Duration, monitor *HealthMonitor) *ExternalClient {
	if timeout <= 0 {
		timeout = DefaultExternalTimeout
	}
	return &ExternalClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		monitor:    monitor,
		tracer:     otel.Tracer("github.com/ajharbinger/partnex-scoring/internal/scoring"),
	}
}

// WithObserver registers fn to receive the outcome and duration of every
// call that reaches the network.
func (c *ExternalClient) WithObserver(fn func(ok bool, elapsed time.Duration)) *ExternalClient {
	c.observe = fn
	return c
}

// Score validates features, then makes exactly one call to the service.
// Invalid features return *FeatureValidationError without any network traffic.
// Every call failure is returned as *ServiceError.
func (c *ExternalClient) Score(ctx context.Context, features Features) (*ExternalScore, error) {
	if err := ValidateFeatures(features); err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "scoring.external_call",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("scoring.endpoint", c.baseURL+"/score")))
	defer span.End()

	start := time.Now()
	result, svcErr := c.call(ctx, features)
	if c.observe != nil {
		c.observe(svcErr == nil, time.Since(start))
	}
	if svcErr != nil {
		span.RecordError(svcErr)
		span.SetStatus(codes.Error, svcErr.Reason())
		if svcErr.StatusCode > 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", svcErr.StatusCode))
		}
		c.monitor.RecordFailure(svcErr)
		return nil, svcErr
	}

	span.SetAttributes(attribute.Float64("scoring.score", result.Score))
	c.monitor.RecordSuccess()
	return result, nil
}

func (c *ExternalClient) call(ctx context.Context, features Features) (*ExternalScore, *ServiceError) {
	body, err := json.Marshal(features)
	if err != nil {
		return nil, &ServiceError{Message: "encode request: " + err.Error(), Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return nil, &ServiceError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Detail:     errorPageTitle(resp.Header.Get("Content-Type"), payload),
		}
	}

	return parseScoreResponse(payload)
}

func (c *ExternalClient) transportError(err error) *ServiceError {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return &ServiceError{Message: fmt.Sprintf("timeout of %dms exceeded", c.timeout.Milliseconds()), Err: err}
	}
	return &ServiceError{Message: err.Error(), Err: err}
}

type scoreResponse struct {
	CredibilityScore json.RawMessage `json:"credibility_score"`
	CredibleClass    json.RawMessage `json:"credible_class"`
}

func parseScoreResponse(payload []byte) (*ExternalScore, *ServiceError) {
	var resp scoreResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, &ServiceError{Message: "decode response: " + err.Error(), Err: err}
	}

	score, ok := parseNumber(resp.CredibilityScore)
	if !ok {
		return nil, &ServiceError{Message: "response missing or invalid credibility_score"}
	}
	score = clampScore(score)

	out := &ExternalScore{Score: score, RiskLevel: RiskLevelFor(score)}
	if class, ok := parseNumber(resp.CredibleClass); ok {
		out.CredibleClass = &class
	}
	return out, nil
}

// parseNumber accepts a JSON number or a string holding one.
func parseNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		n, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// errorPageTitle returns the <title> of an HTML error body, as served by
// gateways and proxies in front of the service.
func errorPageTitle(contentType string, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if !strings.Contains(strings.ToLower(contentType), "html") && !bytes.HasPrefix(trimmed, []byte("<")) {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
