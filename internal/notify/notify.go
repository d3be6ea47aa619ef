// Package notify delivers fire-and-forget healing notifications to an
// observability sink. Delivery failures are logged and never reach the
// healing caller.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/diff"
)

// Event is the payload emitted after every healing attempt.
type Event struct {
	TestName   string       `json:"test_name"`
	Confidence float64      `json:"confidence"`
	BeforeCode string       `json:"before_code"`
	AfterCode  string       `json:"after_code"`
	Diff       []diff.Entry `json:"diff"`
}

// Notifier receives healing events. Implementations must not block the
// caller and must swallow delivery failures.
type Notifier interface {
	HealingObserved(ev Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) HealingObserved(Event) {}

// Webhook POSTs each event as JSON to a fixed URL from its own goroutine.
type Webhook struct {
	url    string
	client *http.Client
	logger *zap.Logger
	wg     sync.WaitGroup
}

const defaultWebhookTimeout = 5 * time.Second

// NewWebhook creates a webhook notifier. A zero timeout selects the default.
func NewWebhook(url string, timeout time.Duration, logger *zap.Logger) *Webhook {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// HealingObserved delivers ev asynchronously. The caller never observes
// delivery errors.
func (w *Webhook) HealingObserved(ev Event) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.deliver(ev)
	}()
}

func (w *Webhook) deliver(ev Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		w.logger.Debug("notify: marshal failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		w.logger.Debug("notify: request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Debug("notify: delivery failed", zap.String("url", w.url), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		w.logger.Debug("notify: sink rejected event",
			zap.String("url", w.url),
			zap.Int("status", resp.StatusCode))
	}
}

// Close waits for in-flight deliveries to finish and drops idle
// connections.
func (w *Webhook) Close() {
	w.wg.Wait()
	w.client.CloseIdleConnections()
}
