// Package clients talks to the content, user and gamification services.
// Every peer sits behind its own circuit breaker.
package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"engagement/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var (
	// ErrNotFound is returned when a peer answers 404.
	ErrNotFound = errors.New("clients: resource not found")
	// ErrUnavailable wraps transport failures, 5xx answers and open breakers.
	ErrUnavailable = errors.New("clients: peer unavailable")
)

// BreakerConfig tunes the circuit breaker of a peer.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	MinRequests      uint32
	FailureThreshold float64
}

// DefaultBreakerConfig trips after most of at least five calls failed and
// probes again after 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		MinRequests:      5,
		FailureThreshold: 0.6,
	}
}

type peer struct {
	name    string
	baseURL string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func newPeer(name, baseURL string, timeout time.Duration, cfg BreakerConfig) *peer {
	logger := observability.Component("clients").With(slog.String("peer", name))
	return &peer{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < cfg.MinRequests {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
			},
			// A 404 is an answer, not a failure.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNotFound)
			},
		}),
	}
}

// call runs one request through the breaker. build is only invoked when the
// breaker lets the call through.
func (p *peer) call(ctx context.Context, op string, build func(url string) *fiber.Agent, path string, dest any) (err error) {
	ctx, span := observability.StartUpstreamSpan(ctx, p.name, op)
	defer func() { observability.EndSpan(span, err) }()

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.send(ctx, build(p.baseURL+path), dest)
	})
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}

	observability.UpstreamFailures.WithLabelValues(p.name, op).Inc()
	p.logger.WarnContext(ctx, "peer call failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, p.name, op, err)
}

func (p *peer) send(ctx context.Context, agent *fiber.Agent, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		agent.Set(k, v)
	}
	if rid, ok := ctx.Value(observability.RequestIDKey).(string); ok {
		agent.Set("X-Request-ID", rid)
	}
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	code, body, errs := agent.Timeout(timeout).Bytes()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	switch {
	case code == fiber.StatusNotFound:
		return ErrNotFound
	case code >= fiber.StatusBadRequest:
		return fmt.Errorf("unexpected status %d", code)
	}
	if dest == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (p *peer) get(ctx context.Context, op, path string, dest any) error {
	return p.call(ctx, op, fiber.Get, path, dest)
}

func (p *peer) post(ctx context.Context, op, path string, body any) error {
	return p.call(ctx, op, func(url string) *fiber.Agent {
		return fiber.Post(url).JSON(body)
	}, path, nil)
}
