package clients

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"engagement/internal/observability"

	"github.com/google/uuid"
)

// Experience actions reported to the gamification service.
const (
	ActionComment = "COMMENT"
	ActionReview  = "REVIEW"
	ActionLike    = "LIKE"
)

// ExperienceEvent is the body of POST /api/v1/experience.
type ExperienceEvent struct {
	UserID   uuid.UUID `json:"user_id"`
	Action   string    `json:"action"`
	EntityID uint      `json:"entity_id"`
}

// GamificationClient posts experience events.
type GamificationClient struct {
	peer *peer
}

// NewGamificationClient builds a gamification client rooted at baseURL.
func NewGamificationClient(baseURL string, timeout time.Duration) *GamificationClient {
	return &GamificationClient{peer: newPeer("gamification", baseURL, timeout, DefaultBreakerConfig())}
}

// AwardExperience sends one event.
func (c *GamificationClient) AwardExperience(ctx context.Context, event ExperienceEvent) error {
	return c.peer.post(ctx, "experience", "/api/v1/experience", event)
}

type experienceSender interface {
	AwardExperience(ctx context.Context, event ExperienceEvent) error
}

// Dispatcher delivers experience events off the request path. At most
// workers sends run at once; events beyond that are dropped. Delivery is
// best-effort: failures are logged and counted, never retried.
type Dispatcher struct {
	sender  experienceSender
	timeout time.Duration
	slots   chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// NewDispatcher wraps sender with a bounded fire-and-forget queue.
func NewDispatcher(sender experienceSender, workers int, timeout time.Duration) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		sender:  sender,
		timeout: timeout,
		slots:   make(chan struct{}, workers),
		logger:  observability.Component("gamification"),
	}
}

// Notify schedules event and returns immediately. The send outlives the
// request but keeps its values for logging and tracing.
func (d *Dispatcher) Notify(ctx context.Context, event ExperienceEvent) {
	select {
	case d.slots <- struct{}{}:
	default:
		observability.GamificationDispatches.WithLabelValues("dropped").Inc()
		d.logger.WarnContext(ctx, "gamification dispatch dropped, all workers busy",
			slog.String("action", event.Action),
			slog.Uint64("entity_id", uint64(event.EntityID)),
		)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() { <-d.slots }()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if err := d.sender.AwardExperience(sendCtx, event); err != nil {
			observability.GamificationDispatches.WithLabelValues("failed").Inc()
			d.logger.WarnContext(sendCtx, "gamification dispatch failed",
				slog.String("action", event.Action),
				slog.Uint64("entity_id", uint64(event.EntityID)),
				slog.String("error", err.Error()),
			)
			return
		}
		observability.GamificationDispatches.WithLabelValues("sent").Inc()
	}()
}

// Wait blocks until in-flight sends finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
