package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/triage"
)

// TriageWorker listens for new ticket messages and launches a triage pipeline
// run for each inbound customer message. Runs execute on their own goroutine
// so HTTP requests never wait on AI providers.
type TriageWorker struct {
	pipeline   *triage.Pipeline
	redis      *persistence.Redis
	logger     *zap.Logger
	runTimeout time.Duration
	dedupTTL   time.Duration

	mu      sync.Mutex
	wg      sync.WaitGroup
	stopped bool
}

// NewTriageWorker creates the worker.
func NewTriageWorker(pipeline *triage.Pipeline, redis *persistence.Redis, logger *zap.Logger, runTimeout, dedupTTL time.Duration) *TriageWorker {
	return &TriageWorker{
		pipeline:   pipeline,
		redis:      redis,
		logger:     logger,
		runTimeout: runTimeout,
		dedupTTL:   dedupTTL,
	}
}

// Register subscribes the worker to message events.
func (w *TriageWorker) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketMessageAdded, w.handleMessageAdded)
}

// Stop blocks until in-flight runs finish and rejects new ones.
func (w *TriageWorker) Stop() {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *TriageWorker) handleMessageAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketMessageAddedPayload)
	if !ok {
		return nil
	}
	if !shouldTriage(payload) {
		return nil
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		w.logger.Warn("triage worker stopped; message skipped",
			zap.String("message_id", payload.MessageID))
		return nil
	}
	w.wg.Add(1)
	w.mu.Unlock()

	// fast-path dedup; the job table's unique claim is the authoritative guard
	if !w.redis.AcquireLock(ctx, "triage:"+payload.MessageID, w.dedupTTL) {
		w.wg.Done()
		w.logger.Debug("triage lock already held",
			zap.String("message_id", payload.MessageID))
		return nil
	}

	trigger := triage.Trigger{TicketID: event.TicketID, MessageID: payload.MessageID}
	go func() {
		defer w.wg.Done()
		runCtx, cancel := context.WithTimeout(context.Background(), w.runTimeout)
		defer cancel()
		if err := w.pipeline.Run(runCtx, trigger); err != nil {
			w.logger.Error("triage run ended with error",
				zap.Error(err),
				zap.String("ticket_id", trigger.TicketID),
				zap.String("message_id", trigger.MessageID))
		}
	}()
	return nil
}

// shouldTriage reports whether a message event starts a pipeline run: only
// public replies written by customers, never AI output looping back.
func shouldTriage(payload events.TicketMessageAddedPayload) bool {
	if payload.IsAIGenerated {
		return false
	}
	if payload.AuthorType != domain.AuthorTypeUser {
		return false
	}
	return payload.MessageType == domain.MessageTypePublicReply
}
