package scoring

import (
	"strings"
	"sync"
	"time"
)

// HealthMonitor tracks outcomes of calls to the external scoring service.
type HealthMonitor struct {
	mu                   sync.RWMutex
	totalCalls           int64
	successfulCalls      int64
	failedCalls          int64
	consecutiveFailures  int64
	lastFailureTime      time.Time
	lastSuccessTime      time.Time
	recentFailures       []FailureRecord
	maxRecentFailures    int
	failureThreshold     float64
	consecutiveThreshold int64
	now                  func() time.Time
}

// FailureRecord is a single failed external call.
type FailureRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Reason     string    `json:"reason"`
	StatusCode int       `json:"status_code,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

// HealthStatus is a point-in-time view of the external scoring service health.
type HealthStatus struct {
	IsHealthy           bool            `json:"is_healthy"`
	TotalCalls          int64           `json:"total_calls"`
	SuccessfulCalls     int64           `json:"successful_calls"`
	FailedCalls         int64           `json:"failed_calls"`
	SuccessRate         float64         `json:"success_rate"`
	ConsecutiveFailures int64           `json:"consecutive_failures"`
	LastFailureTime     *time.Time      `json:"last_failure_time,omitempty"`
	LastSuccessTime     *time.Time      `json:"last_success_time,omitempty"`
	RecentFailures      []FailureRecord `json:"recent_failures"`
	HealthIssues        []string        `json:"health_issues"`
	RecommendedActions  []string        `json:"recommended_actions"`
}

// NewHealthMonitor creates a monitor that keeps the last 50 failures and flags
// a failure rate above 20% or 5 failures in a row.
func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{
		maxRecentFailures:    50,
		failureThreshold:     0.2,
		consecutiveThreshold: 5,
		recentFailures:       make([]FailureRecord, 0, 50),
		now:                  time.Now,
	}
}

// RecordSuccess records a successful external call.
func (h *HealthMonitor) RecordSuccess() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.totalCalls++
	h.successfulCalls++
	h.consecutiveFailures = 0
	h.lastSuccessTime = h.now()
}

// RecordFailure records a failed external call.
func (h *HealthMonitor) RecordFailure(err *ServiceError) {
	if h == nil || err == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.totalCalls++
	h.failedCalls++
	h.consecutiveFailures++
	h.lastFailureTime = h.now()

	h.recentFailures = append(h.recentFailures, FailureRecord{
		Timestamp:  h.lastFailureTime,
		Reason:     err.Reason(),
		StatusCode: err.StatusCode,
		Detail:     err.Detail,
	})
	if len(h.recentFailures) > h.maxRecentFailures {
		h.recentFailures = h.recentFailures[1:]
	}
}

// Status returns the current health status.
func (h *HealthMonitor) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		TotalCalls:          h.totalCalls,
		SuccessfulCalls:     h.successfulCalls,
		FailedCalls:         h.failedCalls,
		ConsecutiveFailures: h.consecutiveFailures,
		RecentFailures:      make([]FailureRecord, len(h.recentFailures)),
		HealthIssues:        []string{},
		RecommendedActions:  []string{},
		IsHealthy:           true,
	}
	copy(status.RecentFailures, h.recentFailures)

	if h.totalCalls > 0 {
		status.SuccessRate = float64(h.successfulCalls) / float64(h.totalCalls)
	} else {
		status.SuccessRate = 1.0
	}

	if !h.lastFailureTime.IsZero() {
		t := h.lastFailureTime
		status.LastFailureTime = &t
	}
	if !h.lastSuccessTime.IsZero() {
		t := h.lastSuccessTime
		status.LastSuccessTime = &t
	}

	if h.totalCalls >= 10 && status.SuccessRate < 1.0-h.failureThreshold {
		status.IsHealthy = false
		status.HealthIssues = append(status.HealthIssues, "High failure rate detected (>20%)")
		status.RecommendedActions = append(status.RecommendedActions,
			"Check external scoring service availability; runs are using fallback scoring")
	}

	if h.consecutiveFailures >= h.consecutiveThreshold {
		status.IsHealthy = false
		status.HealthIssues = append(status.HealthIssues, "Multiple consecutive failures detected")
		status.RecommendedActions = append(status.RecommendedActions,
			"Verify the external scoring URL and that POST /score is reachable")
	}

	h.analyzeFailurePatterns(&status)

	return status
}

// analyzeFailurePatterns flags an error category behind more than half of the
// recent failures.
func (h *HealthMonitor) analyzeFailurePatterns(status *HealthStatus) {
	if len(h.recentFailures) < 3 {
		return
	}

	counts := make(map[string]int)
	for _, f := range h.recentFailures {
		counts[categorizeFailure(f)]++
	}

	total := len(h.recentFailures)
	for category, count := range counts {
		if float64(count)/float64(total) <= 0.5 {
			continue
		}
		switch category {
		case "timeout":
			status.HealthIssues = append(status.HealthIssues, "Frequent timeout errors detected")
			status.RecommendedActions = append(status.RecommendedActions,
				"Consider raising EXTERNAL_SCORING_TIMEOUT_MS or scaling the scoring service")
		case "server":
			status.HealthIssues = append(status.HealthIssues, "External service returning server errors")
			status.RecommendedActions = append(status.RecommendedActions,
				"Inspect the scoring service logs for 5xx responses")
		case "protocol":
			status.HealthIssues = append(status.HealthIssues, "Malformed responses from external service")
			status.RecommendedActions = append(status.RecommendedActions,
				"Confirm the service returns a numeric credibility_score")
		case "network":
			status.HealthIssues = append(status.HealthIssues, "Network connectivity issues detected")
			status.RecommendedActions = append(status.RecommendedActions,
				"Check network connectivity and DNS resolution")
		}
	}
}

func categorizeFailure(f FailureRecord) string {
	if f.StatusCode >= 500 {
		return "server"
	}
	if f.StatusCode > 0 {
		return "other"
	}

	reason := strings.ToLower(f.Reason)
	switch {
	case strings.Contains(reason, "timeout") || strings.Contains(reason, "deadline"):
		return "timeout"
	case strings.Contains(reason, "credibility_score") || strings.Contains(reason, "decode"):
		return "protocol"
	case strings.Contains(reason, "connection") || strings.Contains(reason, "dial") || strings.Contains(reason, "no such host"):
		return "network"
	}
	return "other"
}

// Reset clears all recorded calls.
func (h *HealthMonitor) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.totalCalls = 0
	h.successfulCalls = 0
	h.failedCalls = 0
	h.consecutiveFailures = 0
	h.lastFailureTime = time.Time{}
	h.lastSuccessTime = time.Time{}
	h.recentFailures = h.recentFailures[:0]
}

// IsHealthy reports whether the external service is within healthy parameters.
func (h *HealthMonitor) IsHealthy() bool {
	return h.Status().IsHealthy
}
