package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"villamedia/internal/config"
	"villamedia/pkg/logger"
)

// NotConfiguredMessage is the client-facing text for ErrNotConfigured.
const NotConfiguredMessage = "RESEND_API_KEY not configured in environment variables"

const maxProviderBody = 1 << 20

var (
	ErrNotConfigured = errors.New("email: provider api key not configured")
	ErrUnavailable   = errors.New("email: provider temporarily unavailable")
)

// ProviderError is a non-2xx answer from the provider. Status and Details
// are passed through to the caller unchanged.
type ProviderError struct {
	Status  int
	Message string
	Details any
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("email: provider returned %d: %s", e.Status, e.Message)
}

// Relay sends rendered form submissions through the Resend HTTP API.
type Relay struct {
	apiKey   string
	from     string
	to       []string
	endpoint string

	client *http.Client
	cb     *gobreaker.CircuitBreaker
	log    *logger.Logger
}

// NewRelay builds a relay from config. A nil client gets one with the
// configured timeout.
func NewRelay(cfg config.EmailConfig, client *http.Client) *Relay {
	if client == nil {
		client = &http.Client{Timeout: config.Duration(cfg.Timeout, 10*time.Second)}
	}

	maxFailures := cfg.Breaker.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	log := logger.New("email")
	st := gobreaker.Settings{
		Name:        "resend",
		MaxRequests: 1,
		Interval:    config.Duration(cfg.Breaker.Interval, time.Minute),
		Timeout:     config.Duration(cfg.Breaker.Timeout, 30*time.Second),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
		IsSuccessful: func(err error) bool {
			// Rejections of a single message say nothing about provider health.
			var pe *ProviderError
			if errors.As(err, &pe) {
				return pe.Status < http.StatusInternalServerError && pe.Status != http.StatusTooManyRequests
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &Relay{
		apiKey:   strings.TrimSpace(cfg.ResendAPIKey),
		from:     cfg.From,
		to:       cfg.To,
		endpoint: cfg.Endpoint,
		client:   client,
		cb:       gobreaker.NewCircuitBreaker(st),
		log:      log,
	}
}

// Configured reports whether an API key is present.
func (r *Relay) Configured() bool {
	return r.apiKey != ""
}

// State exposes the breaker state for the admin stats endpoint.
func (r *Relay) State() string {
	return r.cb.State().String()
}

// Send renders req and posts it to the provider. On success it returns the
// provider's decoded response body.
func (r *Relay) Send(ctx context.Context, req Request) (any, error) {
	if !r.Configured() {
		return nil, ErrNotConfigured
	}

	msg, err := req.Render()
	if err != nil {
		return nil, err
	}

	out, err := r.cb.Execute(func() (interface{}, error) {
		return r.post(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return nil, err
	}

	r.log.Info("sent %s email %q", req.Type, msg.Subject)
	return out, nil
}

func (r *Relay) post(ctx context.Context, msg Message) (any, error) {
	payload, err := json.Marshal(map[string]any{
		"from":    r.from,
		"to":      r.to,
		"subject": msg.Subject,
		"html":    msg.HTML,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("email: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("email: send: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	if err != nil {
		return nil, fmt.Errorf("email: read response: %w", err)
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		data = string(raw)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := "Failed to send email"
		if m, ok := data.(map[string]any); ok {
			if s, ok := m["message"].(string); ok && s != "" {
				message = s
			}
		}
		r.log.Error("provider error %d: %s", resp.StatusCode, message)
		return nil, &ProviderError{Status: resp.StatusCode, Message: message, Details: data}
	}

	return data, nil
}
