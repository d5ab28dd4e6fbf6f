package triage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/ai"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Trigger identifies the message a pipeline run processes.
type Trigger struct {
	TicketID  string
	MessageID string
}

// Run outcomes recorded in metrics.
const (
	outcomeSucceeded = "succeeded"
	outcomeFailed    = "failed"
	outcomeFlagged   = "flagged"
	outcomeDuplicate = "duplicate"
)

const humanReviewFallbackReason = "The assistant requested a human review of its reply."

// cleanupTimeout bounds the failure bookkeeping writes. They run on a context
// detached from the run budget so a timed-out stage can still be recorded.
const cleanupTimeout = 10 * time.Second

func cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
}

// Dependencies bundles everything the pipeline needs. Every collaborator is
// an interface so stages can be tested against fakes.
type Dependencies struct {
	TicketRepo       repository.TicketRepository
	MessageRepo      repository.TicketMessageRepository
	AttachmentRepo   repository.AttachmentRepository
	NotificationRepo repository.NotificationRepository
	JobRepo          repository.TriageJobRepository
	HistoryRepo      repository.TicketHistoryRepository
	Screener         ai.Screener
	Retriever        Retriever
	Responder        ai.Responder
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
	Metrics          *observability.Metrics
}

// Pipeline runs the AI triage chain for one inbound customer message:
// screen, retrieve, generate, persist. Strictly sequential, run once,
// best-effort; failures never retry.
type Pipeline struct {
	tickets       repository.TicketRepository
	messages      repository.TicketMessageRepository
	attachments   repository.AttachmentRepository
	notifications repository.NotificationRepository
	jobs          repository.TriageJobRepository
	history       repository.TicketHistoryRepository
	screener      ai.Screener
	retriever     Retriever
	responder     ai.Responder
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	metrics       *observability.Metrics
}

// NewPipeline constructs the pipeline.
func NewPipeline(deps Dependencies) *Pipeline {
	return &Pipeline{
		tickets:       deps.TicketRepo,
		messages:      deps.MessageRepo,
		attachments:   deps.AttachmentRepo,
		notifications: deps.NotificationRepo,
		jobs:          deps.JobRepo,
		history:       deps.HistoryRepo,
		screener:      deps.Screener,
		retriever:     deps.Retriever,
		responder:     deps.Responder,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
		metrics:       deps.Metrics,
	}
}

// Run executes one triage run for the trigger. The message id is the
// idempotency key: a duplicate trigger finds the existing job row and returns
// without side effects.
func (p *Pipeline) Run(ctx context.Context, trigger Trigger) error {
	job := &domain.TriageJob{
		MessageID: trigger.MessageID,
		TicketID:  trigger.TicketID,
	}
	if err := p.jobs.Claim(ctx, job); err != nil {
		if errors.Is(err, repository.ErrDuplicateJob) {
			p.metrics.RecordTriageRun(outcomeDuplicate)
			p.logger.Debug("duplicate triage trigger ignored",
				zap.String("message_id", trigger.MessageID))
			return nil
		}
		return fmt.Errorf("claim triage job: %w", err)
	}
	if err := p.jobs.MarkRunning(ctx, job.ID); err != nil {
		p.logger.Warn("mark job running", zap.Error(err), zap.String("job_id", job.ID))
	}

	ticket, err := p.tickets.GetByID(ctx, trigger.TicketID)
	if err != nil {
		return p.failInput(ctx, job, "ticket", trigger.TicketID, err)
	}
	msg, err := p.messages.GetByID(ctx, trigger.MessageID)
	if err != nil {
		return p.failInput(ctx, job, "message", trigger.MessageID, err)
	}
	if msg.TicketID != ticket.ID {
		return p.failInput(ctx, job, "message", trigger.MessageID,
			fmt.Errorf("message belongs to ticket %s", msg.TicketID))
	}

	flagged, err := p.runStages(ctx, ticket, msg)
	if err != nil {
		cleanupCtx, cancel := cleanupContext(ctx)
		defer cancel()
		p.notifyProcessingError(cleanupCtx, ticket, err)
		if markErr := p.jobs.MarkFailed(cleanupCtx, job.ID, err.Error()); markErr != nil {
			p.logger.Warn("mark job failed", zap.Error(markErr), zap.String("job_id", job.ID))
		}
		p.metrics.RecordTriageRun(outcomeFailed)
		p.logger.Error("triage run failed",
			zap.Error(err),
			zap.String("ticket_id", ticket.ID),
			zap.String("message_id", msg.ID))
		return err
	}

	if err := p.jobs.MarkSucceeded(ctx, job.ID); err != nil {
		p.logger.Warn("mark job succeeded", zap.Error(err), zap.String("job_id", job.ID))
	}
	if flagged {
		p.metrics.RecordTriageRun(outcomeFlagged)
	} else {
		p.metrics.RecordTriageRun(outcomeSucceeded)
	}
	return nil
}

// runStages performs screen -> retrieve -> generate -> apply. Returns true
// when the run terminated on the flagged-content path.
func (p *Pipeline) runStages(ctx context.Context, ticket *domain.Ticket, msg *domain.TicketMessage) (bool, error) {
	attachmentIDs, err := p.attachmentIDs(ctx, msg.ID)
	if err != nil {
		return false, fmt.Errorf("load attachments: %w", err)
	}

	screen, err := p.screener.Screen(ctx, msg.Body, attachmentIDs)
	if err != nil {
		// fail-closed abort: a screener error is never treated as a pass
		return false, fmt.Errorf("screen message: %w", err)
	}
	if screen.Flagged {
		notification := &domain.Notification{
			OrganizationID: ticket.OrganizationID,
			Type:           domain.NotificationHighPriority,
			TicketID:       &ticket.ID,
			MessageID:      &msg.ID,
			Title:          "Flagged message",
			Content:        fmt.Sprintf("Message content was flagged: %s", screen.Reason),
		}
		if err := p.notifications.Create(ctx, notification); err != nil {
			return false, fmt.Errorf("record flag notification: %w", err)
		}
		p.logger.Info("message flagged by screener",
			zap.String("ticket_id", ticket.ID),
			zap.String("message_id", msg.ID),
			zap.String("reason", screen.Reason))
		return true, nil
	}

	passages, err := p.retriever.Retrieve(ctx, msg.Body, ticket.OrganizationID)
	if err != nil {
		return false, fmt.Errorf("retrieve knowledge: %w", err)
	}

	result, err := p.responder.Respond(ctx, ai.ResponderInput{
		Message:  msg.Body,
		TicketID: ticket.ID,
		Context: ai.TicketContext{
			Status:       ticket.Status,
			Priority:     ticket.Priority,
			CreatedAt:    ticket.CreatedAt,
			UpdatedAt:    ticket.UpdatedAt,
			CreatedBy:    ticket.RequesterID,
			AssignedTo:   ticket.AssigneeID,
			AssignedTeam: ticket.TeamID,
		},
		KnowledgeBase: passages,
	})
	if err != nil {
		return false, fmt.Errorf("generate response: %w", err)
	}

	if err := p.apply(ctx, ticket, result); err != nil {
		return false, err
	}
	return false, nil
}

// apply persists the generated reply, then the workflow mutation, then the
// review notification, in that order. The reply stays even when a later step
// fails; there is no compensating rollback.
func (p *Pipeline) apply(ctx context.Context, ticket *domain.Ticket, result domain.AgentResult) error {
	reply := &domain.TicketMessage{
		TicketID:        ticket.ID,
		AuthorType:      domain.AuthorTypeSystem,
		MessageType:     domain.MessageTypePublicReply,
		Body:            result.Response,
		IsAIGenerated:   true,
		AgentHasRead:    false,
		CustomerHasRead: true,
	}
	if err := p.messages.Create(ctx, reply); err != nil {
		return fmt.Errorf("persist ai reply: %w", err)
	}

	if update := workflowUpdateFor(result.NextAction, ticket); update != nil {
		updated, err := p.tickets.UpdateWorkflow(ctx, ticket.ID, *update)
		switch {
		case errors.Is(err, repository.ErrStaleTicket):
			// lost a revision race with a concurrent writer; the winner's
			// state stands and this run's reply remains
			p.logger.Warn("workflow update lost revision race",
				zap.String("ticket_id", ticket.ID),
				zap.String("next_action", string(result.NextAction)))
		case err != nil:
			return fmt.Errorf("update ticket workflow: %w", err)
		default:
			p.recordWorkflowChange(ctx, ticket, updated, update)
			p.publishWorkflowEvents(ctx, ticket, updated, update)
			*ticket = *updated
		}
	}

	if result.NeedsHumanReview {
		reason := humanReviewFallbackReason
		if result.HumanReviewReason != nil && *result.HumanReviewReason != "" {
			reason = *result.HumanReviewReason
		}
		notification := &domain.Notification{
			OrganizationID: ticket.OrganizationID,
			Type:           domain.NotificationHumanReviewRequired,
			TicketID:       &ticket.ID,
			MessageID:      &reply.ID,
			Title:          "Human review required",
			Content:        reason,
		}
		if err := p.notifications.Create(ctx, notification); err != nil {
			return fmt.Errorf("record review notification: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) attachmentIDs(ctx context.Context, messageID string) ([]string, error) {
	if p.attachments == nil {
		return nil, nil
	}
	attachments, err := p.attachments.ListByMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(attachments))
	for _, att := range attachments {
		ids = append(ids, att.FileName)
	}
	return ids, nil
}

func (p *Pipeline) recordWorkflowChange(ctx context.Context, before, after *domain.Ticket, update *repository.WorkflowUpdate) {
	if p.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:      before.ID,
		ChangedByType: domain.AuthorTypeSystem,
	}
	switch {
	case update.Status != nil:
		entry.ChangeType = domain.ChangeTypeStatus
		entry.OldValue = map[string]any{"status": before.Status}
		entry.NewValue = map[string]any{"status": after.Status, "comment": "ai_triage"}
	case update.Priority != nil:
		entry.ChangeType = domain.ChangeTypePriority
		entry.OldValue = map[string]any{"priority": before.Priority}
		entry.NewValue = map[string]any{"priority": after.Priority}
	default:
		return
	}
	if err := p.history.Create(ctx, entry); err != nil {
		p.logger.Warn("record triage history", zap.Error(err), zap.String("ticket_id", before.ID))
	}
}

func (p *Pipeline) publishWorkflowEvents(ctx context.Context, before, after *domain.Ticket, update *repository.WorkflowUpdate) {
	if p.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		TicketID:  before.ID,
		Actor:     events.Actor{Type: domain.SubjectTypeSystem},
		Timestamp: time.Now(),
	}
	switch {
	case update.Status != nil:
		event.Type = events.EventTicketStatusChanged
		event.Payload = events.TicketStatusChangedPayload{
			OldStatus: before.Status,
			NewStatus: after.Status,
			Comment:   "ai_triage",
		}
	case update.Priority != nil:
		event.Type = events.EventTicketPriorityChanged
		event.Payload = events.TicketPriorityChangedPayload{
			OldPriority: before.Priority,
			NewPriority: after.Priority,
		}
	default:
		return
	}
	_ = p.dispatcher.Publish(ctx, event)
}

// failInput handles tickets/messages that vanished between trigger and run.
// No notification is raised; the failure is observable via the job record and
// the log.
func (p *Pipeline) failInput(ctx context.Context, job *domain.TriageJob, kind, id string, cause error) error {
	err := fmt.Errorf("load %s %s: %w", kind, id, cause)
	cleanupCtx, cancel := cleanupContext(ctx)
	defer cancel()
	if markErr := p.jobs.MarkFailed(cleanupCtx, job.ID, err.Error()); markErr != nil {
		p.logger.Warn("mark job failed", zap.Error(markErr), zap.String("job_id", job.ID))
	}
	p.metrics.RecordTriageRun(outcomeFailed)
	if errors.Is(cause, pgx.ErrNoRows) {
		p.logger.Error("triage input missing", zap.String("kind", kind), zap.String("id", id))
	} else {
		p.logger.Error("triage input load failed", zap.Error(cause), zap.String("kind", kind), zap.String("id", id))
	}
	return err
}

// notifyProcessingError raises the best-effort PROCESSING_ERROR notification.
// A failure here is logged and swallowed; the job record still carries the
// original error.
func (p *Pipeline) notifyProcessingError(ctx context.Context, ticket *domain.Ticket, cause error) {
	notification := &domain.Notification{
		OrganizationID: ticket.OrganizationID,
		Type:           domain.NotificationProcessingError,
		TicketID:       &ticket.ID,
		Title:          "AI processing error",
		Content:        cause.Error(),
	}
	if err := p.notifications.Create(ctx, notification); err != nil {
		p.logger.Warn("record processing-error notification",
			zap.Error(err), zap.String("ticket_id", ticket.ID))
	}
}
