package triage

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/ai"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
)

type pipelineFixture struct {
	tickets       *fakeTicketRepo
	messages      *fakeMessageRepo
	attachments   *fakeAttachmentRepo
	notifications *fakeNotificationRepo
	jobs          *fakeJobRepo
	history       *fakeHistoryRepo
	screener      *fakeScreener
	retriever     *fakeRetriever
	responder     *fakeResponder
	pipeline      *Pipeline
}

func newFixture(ticket *domain.Ticket, msg *domain.TicketMessage) *pipelineFixture {
	f := &pipelineFixture{
		tickets:       newFakeTicketRepo(ticket),
		messages:      newFakeMessageRepo(msg),
		attachments:   &fakeAttachmentRepo{},
		notifications: &fakeNotificationRepo{},
		jobs:          newFakeJobRepo(),
		history:       &fakeHistoryRepo{},
		screener:      &fakeScreener{},
		retriever:     &fakeRetriever{},
		responder: &fakeResponder{result: domain.AgentResult{
			Response:        "Thanks for reaching out.",
			ConfidenceScore: 0.9,
			NextAction:      domain.NextActionNone,
		}},
	}
	f.pipeline = NewPipeline(Dependencies{
		TicketRepo:       f.tickets,
		MessageRepo:      f.messages,
		AttachmentRepo:   f.attachments,
		NotificationRepo: f.notifications,
		JobRepo:          f.jobs,
		HistoryRepo:      f.history,
		Screener:         f.screener,
		Retriever:        f.retriever,
		Responder:        f.responder,
		Dispatcher:       events.NewInMemoryDispatcher(),
		Logger:           zap.NewNop(),
		Metrics:          observability.NewMetrics(),
	})
	return f
}

func testTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:             "ticket-1",
		ExternalKey:    "TCK-1",
		OrganizationID: "org-1",
		RequesterID:    "user-1",
		Subject:        "Cannot log in",
		Status:         domain.TicketStatusOpen,
		Priority:       domain.TicketPriorityMedium,
		Revision:       3,
	}
}

func testMessage() *domain.TicketMessage {
	authorID := "user-1"
	return &domain.TicketMessage{
		ID:          "msg-1",
		TicketID:    "ticket-1",
		AuthorType:  domain.AuthorTypeUser,
		AuthorID:    &authorID,
		MessageType: domain.MessageTypePublicReply,
		Body:        "I forgot my password, how do I reset it?",
	}
}

func run(t *testing.T, f *pipelineFixture) error {
	t.Helper()
	return f.pipeline.Run(context.Background(), Trigger{TicketID: "ticket-1", MessageID: "msg-1"})
}

func TestRunGeneratesReplyAndSucceeds(t *testing.T) {
	f := newFixture(testTicket(), testMessage())

	if err := run(t, f); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(f.messages.created) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(f.messages.created))
	}
	reply := f.messages.created[0]
	if reply.AuthorType != domain.AuthorTypeSystem {
		t.Errorf("reply author type = %s, want SYSTEM", reply.AuthorType)
	}
	if reply.AuthorID != nil {
		t.Errorf("reply author id = %v, want nil", *reply.AuthorID)
	}
	if !reply.IsAIGenerated {
		t.Error("reply should be marked as AI generated")
	}
	if reply.AgentHasRead {
		t.Error("reply should be unread for agents")
	}
	if !reply.CustomerHasRead {
		t.Error("reply should be marked read for the customer")
	}

	job := f.jobs.jobs["msg-1"]
	if job == nil || job.State != domain.TriageJobSucceeded {
		t.Fatalf("job state = %+v, want SUCCEEDED", job)
	}
	if len(f.notifications.created) != 0 {
		t.Errorf("expected no notifications, got %d", len(f.notifications.created))
	}
}

func TestRunFlaggedMessageSkipsGeneration(t *testing.T) {
	f := newFixture(testTicket(), testMessage())
	f.screener.result = ai.ScreenResult{Flagged: true, Reason: "self-harm"}

	if err := run(t, f); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(f.messages.created) != 0 {
		t.Fatalf("expected no AI reply for flagged message, got %d", len(f.messages.created))
	}
	if len(f.retriever.queries) != 0 {
		t.Error("retrieval should not run for flagged messages")
	}
	if len(f.responder.inputs) != 0 {
		t.Error("generation should not run for flagged messages")
	}

	alerts := f.notifications.ofType(domain.NotificationHighPriority)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 HIGH_PRIORITY notification, got %d", len(alerts))
	}
	if alerts[0].Content != "Message content was flagged: self-harm" {
		t.Errorf("notification content = %q", alerts[0].Content)
	}
	if alerts[0].OrganizationID != "org-1" {
		t.Errorf("notification org = %q", alerts[0].OrganizationID)
	}

	if job := f.jobs.jobs["msg-1"]; job.State != domain.TriageJobSucceeded {
		t.Errorf("job state = %s, want SUCCEEDED", job.State)
	}

	// the ticket stays untouched
	ticket, _ := f.tickets.GetByID(context.Background(), "ticket-1")
	if ticket.Status != domain.TicketStatusOpen || ticket.Revision != 3 {
		t.Errorf("ticket mutated on flagged path: %+v", ticket)
	}
}

func TestRunScreenerErrorFailsClosed(t *testing.T) {
	f := newFixture(testTicket(), testMessage())
	f.screener.err = errProvider

	if err := run(t, f); err == nil {
		t.Fatal("expected error when screener is unavailable")
	}

	if len(f.messages.created) != 0 {
		t.Error("no reply should be generated when screening fails")
	}
	if len(f.responder.inputs) != 0 {
		t.Error("generation should not run when screening fails")
	}
	if n := f.notifications.ofType(domain.NotificationProcessingError); len(n) != 1 {
		t.Fatalf("expected 1 PROCESSING_ERROR notification, got %d", len(n))
	}
	if job := f.jobs.jobs["msg-1"]; job.State != domain.TriageJobFailed {
		t.Errorf("job state = %s, want FAILED", job.State)
	}
}

func TestRunCloseActionResolvesTicket(t *testing.T) {
	f := newFixture(testTicket(), testMessage())
	f.responder.result.NextAction = domain.NextActionClose

	if err := run(t, f); err != nil {
		t.Fatalf("run: %v", err)
	}

	ticket, _ := f.tickets.GetByID(context.Background(), "ticket-1")
	if ticket.Status != domain.TicketStatusResolved {
		t.Errorf("ticket status = %s, want RESOLVED", ticket.Status)
	}
	if ticket.Revision != 4 {
		t.Errorf("ticket revision = %d, want 4", ticket.Revision)
	}
	if len(f.history.entries) != 1 || f.history.entries[0].ChangeType != domain.ChangeTypeStatus {
		t.Errorf("expected one status history entry, got %+v", f.history.entries)
	}
	if f.history.entries[0].ChangedByType != domain.AuthorTypeSystem {
		t.Errorf("history author = %s, want SYSTEM", f.history.entries[0].ChangedByType)
	}
	if len(f.messages.created) != 1 {
		t.Errorf("expected exactly one AI reply, got %d", len(f.messages.created))
	}
	if len(f.notifications.created) != 0 {
		t.Errorf("confident close should raise no notifications, got %d", len(f.notifications.created))
	}
}

func TestRunWaitForCustomerAction(t *testing.T) {
	f := newFixture(testTicket(), testMessage())
	f.responder.result.NextAction = domain.NextActionWaitForCustomer

	if err := run(t, f); err != nil {
		t.Fatalf("run: %v", err)
	}

	ticket, _ := f.tickets.GetByID(context.Background(), "ticket-1")
	if ticket.Status != domain.TicketStatusWaitingOnCustomer {
		t.Errorf("ticket status = %s, want WAITING_ON_CUSTOMER", ticket.Status)
	}
}

func TestRunEscalateBumpsPriorityOnly(t *testing.T) {
	f := newFixture(testTicket(), testMessage())
	f.responder.result.NextAction = domain.NextActionEscalate

	if err := run(t, f); err != nil {
		t.Fatalf("run: %v", err)
	}

	ticket, _ := f.tickets.GetByID(context.Background(), "ticket-1")
	if ticket.Priority != domain.TicketPriorityHigh {
		t.Errorf("ticket priority = %s, want HIGH", ticket.Priority)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Errorf("escalate must not change status, got %s", ticket.Status)
	}
}

func TestRunEscalateSkippedWhenAlreadyUrgent(t *testing.T) {
	ticket := testTicket()
	ticket.Priority = domain.TicketPriorityUrgent
	f := newFixture(ticket, testMessage())
	f.responder.result.NextAction = domain.NextActionEscalate

	if err := run(t, f); err != nil {
		t.Fatalf("run: %v", err)
	}

	if f.tickets.updateCalls != 0 {
		t.Errorf("expected no workflow update for already-urgent ticket, got %d", f.tickets.updateCalls)
	}
}

func TestRunHumanReviewNotification(t *testing.T) {
	f := newFixture(testTicket(), testMessage())
	reason := "Billing dispute needs manual approval."
	f.responder.result.NeedsHumanReview = true
	f.responder.result.HumanReviewReason = &reason

	if err := run(t, f); err != nil {
		t.Fatalf("run: %v", err)
	}

	reviews := f.notifications.ofType(domain.NotificationHumanReviewRequired)
	if len(reviews) != 1 {
		t.Fatalf("expected 1 HUMAN_REVIEW_REQUIRED notification, got %d", len(reviews))
	}
	if reviews[0].Content != reason {
		t.Errorf("notification content = %q, want %q", reviews[0].Content, reason)
	}
	if reviews[0].MessageID == nil || *reviews[0].MessageID != f.messages.created[0].ID {
		t.Error("notification should reference the generated reply")
	}
}

func TestRunHumanReviewFallbackReason(t *testing.T) {
	f := newFixture(testTicket(), testMessage())
	f.responder.result.NeedsHumanReview = true

	if err := run(t, f); err != nil {
		t.Fatalf("run: %v", err)
	}

	reviews := f.notifications.ofType(domain.NotificationHumanReviewRequired)
	if len(reviews) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(reviews))
	}
	if reviews[0].Content != humanReviewFallbackReason {
		t.Errorf("fallback content = %q", reviews[0].Content)
	}
}

func TestRunNoReviewNotificationWhenNotRequested(t *testing.T) {
	f := newFixture(testTicket(), testMessage())

	if err := run(t, f); err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := f.notifications.ofType(domain.NotificationHumanReviewRequired); len(n) != 0 {
		t.Errorf("unexpected review notification: %+v", n)
	}
}

func TestRunDuplicateTriggerIsNoop(t *testing.T) {
	f := newFixture(testTicket(), testMessage())

	if err := run(t, f); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := run(t, f); err != nil {
		t.Fatalf("duplicate run should be silent, got %v", err)
	}

	if len(f.messages.created) != 1 {
		t.Errorf("duplicate run produced extra replies: %d", len(f.messages.created))
	}
	if f.screener.calls != 1 {
		t.Errorf("duplicate run re-screened: %d calls", f.screener.calls)
	}
}

func TestRunStaleRevisionKeepsReply(t *testing.T) {
	f := newFixture(testTicket(), testMessage())
	f.responder.result.NextAction = domain.NextActionClose
	f.tickets.forceStale = true

	if err := run(t, f); err != nil {
		t.Fatalf("stale revision must not fail the run, got %v", err)
	}

	if len(f.messages.created) != 1 {
		t.Errorf("reply should persist despite lost revision race, got %d", len(f.messages.created))
	}
	ticket, _ := f.tickets.GetByID(context.Background(), "ticket-1")
	if ticket.Status != domain.TicketStatusOpen {
		t.Errorf("ticket status = %s, want unchanged OPEN", ticket.Status)
	}
	if job := f.jobs.jobs["msg-1"]; job.State != domain.TriageJobSucceeded {
		t.Errorf("job state = %s, want SUCCEEDED", job.State)
	}
}

func TestRunResponderErrorRaisesProcessingError(t *testing.T) {
	f := newFixture(testTicket(), testMessage())
	f.responder.err = errProvider

	if err := run(t, f); err == nil {
		t.Fatal("expected error from generation failure")
	}

	if len(f.messages.created) != 0 {
		t.Error("no reply should be stored on generation failure")
	}
	if n := f.notifications.ofType(domain.NotificationProcessingError); len(n) != 1 {
		t.Fatalf("expected 1 PROCESSING_ERROR notification, got %d", len(n))
	}
	if job := f.jobs.jobs["msg-1"]; job.State != domain.TriageJobFailed {
		t.Errorf("job state = %s, want FAILED", job.State)
	}
}

func TestRunBudgetExpiryStillRecordsFailure(t *testing.T) {
	f := newFixture(testTicket(), testMessage())
	f.responder.hang = true

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := f.pipeline.Run(ctx, Trigger{TicketID: "ticket-1", MessageID: "msg-1"}); err == nil {
		t.Fatal("expected error when the run budget expires mid-generation")
	}

	// the failure bookkeeping must survive the expired run context
	if n := f.notifications.ofType(domain.NotificationProcessingError); len(n) != 1 {
		t.Fatalf("expected 1 PROCESSING_ERROR notification, got %d", len(n))
	}
	if job := f.jobs.jobs["msg-1"]; job.State != domain.TriageJobFailed {
		t.Errorf("job state = %s, want FAILED", job.State)
	}
}

func TestRunMissingTicketFailsWithoutNotification(t *testing.T) {
	f := newFixture(testTicket(), testMessage())
	delete(f.tickets.tickets, "ticket-1")

	if err := run(t, f); err == nil {
		t.Fatal("expected error for missing ticket")
	}

	if len(f.notifications.created) != 0 {
		t.Errorf("missing input must not raise notifications, got %d", len(f.notifications.created))
	}
	if job := f.jobs.jobs["msg-1"]; job.State != domain.TriageJobFailed {
		t.Errorf("job state = %s, want FAILED", job.State)
	}
}

func TestRunMismatchedMessageTicketFails(t *testing.T) {
	msg := testMessage()
	msg.TicketID = "other-ticket"
	f := newFixture(testTicket(), msg)

	if err := run(t, f); err == nil {
		t.Fatal("expected error when message belongs to a different ticket")
	}
	if len(f.messages.created) != 0 {
		t.Error("no reply should be generated for mismatched input")
	}
}

func TestRunPassesKnowledgeToResponder(t *testing.T) {
	f := newFixture(testTicket(), testMessage())
	f.retriever.matches = []domain.PassageMatch{
		{SourceType: domain.KnowledgeSourceFAQ, SourceID: "faq-9", Content: "Use the reset link.", Similarity: 0.91},
	}

	if err := run(t, f); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(f.responder.inputs) != 1 {
		t.Fatalf("expected one generation call, got %d", len(f.responder.inputs))
	}
	input := f.responder.inputs[0]
	if len(input.KnowledgeBase) != 1 || input.KnowledgeBase[0].SourceID != "faq-9" {
		t.Errorf("knowledge not passed through: %+v", input.KnowledgeBase)
	}
	if input.Context.Status != domain.TicketStatusOpen || input.Context.CreatedBy != "user-1" {
		t.Errorf("ticket context not populated: %+v", input.Context)
	}
}
