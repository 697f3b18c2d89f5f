// Package handlers provides the HTTP handlers served behind the X-Hub
// signature middleware.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"xhub-signature/internal/common/logging"
	"xhub-signature/internal/middleware"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	Health() error
}

type Handlers struct {
	logger logging.Logger
	guard  HealthChecker
}

// WebhookAck is returned for every accepted delivery
type WebhookAck struct {
	Event     string `json:"event,omitempty"`
	Delivery  string `json:"delivery,omitempty"`
	BodyBytes int    `json:"body_bytes"`
	Verified  bool   `json:"verified"`
}

// New creates the handlers. guard may be nil when no delivery guard is
// configured.
func New(logger logging.Logger, guard HealthChecker) *Handlers {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Handlers{
		logger: logger,
		guard:  guard,
	}
}

// HandleWebhook acknowledges a delivery that passed signature verification
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	res, _ := middleware.ResultFromContext(r.Context())
	ack := WebhookAck{
		Event:     r.Header.Get("X-GitHub-Event"),
		Delivery:  r.Header.Get(middleware.HeaderDelivery),
		BodyBytes: len(body),
		Verified:  res.Valid,
	}

	h.logger.WithContext(r.Context()).Info("Webhook accepted",
		logging.String("event", ack.Event),
		logging.Int("body_bytes", ack.BodyBytes),
		logging.Bool("verified", ack.Verified),
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ack)
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
	}

	code := http.StatusOK
	if h.guard == nil {
		status["guard_status"] = "not_configured"
	} else if err := h.guard.Health(); err != nil {
		status["status"] = "degraded"
		status["guard_status"] = "unhealthy"
		status["guard_error"] = err.Error()
		code = http.StatusServiceUnavailable
	} else {
		status["guard_status"] = "healthy"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}
