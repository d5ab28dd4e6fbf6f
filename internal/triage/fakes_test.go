package triage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/ai"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type fakeTicketRepo struct {
	tickets     map[string]*domain.Ticket
	forceStale  bool
	updateCalls int
}

func newFakeTicketRepo(tickets ...*domain.Ticket) *fakeTicketRepo {
	m := make(map[string]*domain.Ticket)
	for _, t := range tickets {
		m[t.ID] = t
	}
	return &fakeTicketRepo{tickets: m}
}

func (f *fakeTicketRepo) Create(ctx context.Context, t *domain.Ticket) error {
	f.tickets[t.ID] = t
	return nil
}

func (f *fakeTicketRepo) Update(ctx context.Context, t *domain.Ticket) error {
	f.tickets[t.ID] = t
	return nil
}

func (f *fakeTicketRepo) UpdateWorkflow(ctx context.Context, ticketID string, update repository.WorkflowUpdate) (*domain.Ticket, error) {
	f.updateCalls++
	stored, ok := f.tickets[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if f.forceStale || stored.Revision != update.Revision {
		return nil, repository.ErrStaleTicket
	}
	copied := *stored
	if update.Status != nil {
		copied.Status = *update.Status
	}
	if update.Priority != nil {
		copied.Priority = *update.Priority
	}
	if update.ClosedAt != nil {
		copied.ClosedAt = update.ClosedAt
	}
	copied.Revision++
	copied.UpdatedAt = time.Now()
	f.tickets[ticketID] = &copied
	return &copied, nil
}

func (f *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTicketRepo) GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error) {
	for _, t := range f.tickets {
		if t.ExternalKey == key {
			return t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error) {
	return nil, nil
}

func (f *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return nil, nil
}

type fakeMessageRepo struct {
	messages map[string]*domain.TicketMessage
	created  []*domain.TicketMessage
	nextID   int
}

func newFakeMessageRepo(messages ...*domain.TicketMessage) *fakeMessageRepo {
	m := make(map[string]*domain.TicketMessage)
	for _, msg := range messages {
		m[msg.ID] = msg
	}
	return &fakeMessageRepo{messages: m}
}

func (f *fakeMessageRepo) Create(ctx context.Context, msg *domain.TicketMessage) error {
	f.nextID++
	msg.ID = fmt.Sprintf("msg-created-%d", f.nextID)
	msg.CreatedAt = time.Now()
	f.messages[msg.ID] = msg
	f.created = append(f.created, msg)
	return nil
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, id string) (*domain.TicketMessage, error) {
	msg, ok := f.messages[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return msg, nil
}

func (f *fakeMessageRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	return nil, nil
}

func (f *fakeMessageRepo) MarkAgentRead(ctx context.Context, ticketID string) error { return nil }

func (f *fakeMessageRepo) MarkCustomerRead(ctx context.Context, ticketID string) error { return nil }

type fakeAttachmentRepo struct {
	byMessage map[string][]domain.AttachmentReference
}

func (f *fakeAttachmentRepo) CreateForMessage(ctx context.Context, messageID string, refs []domain.AttachmentReference) error {
	if f.byMessage == nil {
		f.byMessage = make(map[string][]domain.AttachmentReference)
	}
	for _, ref := range refs {
		ref.TicketMessageID = messageID
		f.byMessage[messageID] = append(f.byMessage[messageID], ref)
	}
	return nil
}

func (f *fakeAttachmentRepo) ListByMessage(ctx context.Context, messageID string) ([]domain.AttachmentReference, error) {
	return f.byMessage[messageID], nil
}

type fakeNotificationRepo struct {
	created []*domain.Notification
	err     error
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationRepo) ListByOrganization(ctx context.Context, organizationID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id string) error { return nil }

func (f *fakeNotificationRepo) ofType(t domain.NotificationType) []*domain.Notification {
	var out []*domain.Notification
	for _, n := range f.created {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

type fakeJobRepo struct {
	jobs   map[string]*domain.TriageJob
	nextID int
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*domain.TriageJob)}
}

func (f *fakeJobRepo) Claim(ctx context.Context, job *domain.TriageJob) error {
	if _, exists := f.jobs[job.MessageID]; exists {
		return repository.ErrDuplicateJob
	}
	f.nextID++
	job.ID = fmt.Sprintf("job-%d", f.nextID)
	job.State = domain.TriageJobPending
	job.CreatedAt = time.Now()
	f.jobs[job.MessageID] = job
	return nil
}

func (f *fakeJobRepo) GetByMessage(ctx context.Context, messageID string) (*domain.TriageJob, error) {
	job, ok := f.jobs[messageID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return job, nil
}

func (f *fakeJobRepo) byID(id string) *domain.TriageJob {
	for _, job := range f.jobs {
		if job.ID == id {
			return job
		}
	}
	return nil
}

func (f *fakeJobRepo) MarkRunning(ctx context.Context, id string) error {
	if job := f.byID(id); job != nil {
		now := time.Now()
		job.State = domain.TriageJobRunning
		job.StartedAt = &now
	}
	return nil
}

func (f *fakeJobRepo) MarkSucceeded(ctx context.Context, id string) error {
	if job := f.byID(id); job != nil {
		now := time.Now()
		job.State = domain.TriageJobSucceeded
		job.CompletedAt = &now
	}
	return nil
}

func (f *fakeJobRepo) MarkFailed(ctx context.Context, id string, runErr string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if job := f.byID(id); job != nil {
		now := time.Now()
		job.State = domain.TriageJobFailed
		job.Error = &runErr
		job.CompletedAt = &now
	}
	return nil
}

type fakeHistoryRepo struct {
	entries []*domain.TicketHistory
}

func (f *fakeHistoryRepo) Create(ctx context.Context, entry *domain.TicketHistory) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeHistoryRepo) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	return nil, nil
}

type fakeScreener struct {
	result ai.ScreenResult
	err    error
	calls  int
}

func (f *fakeScreener) Screen(ctx context.Context, text string, attachmentIDs []string) (ai.ScreenResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeRetriever struct {
	matches []domain.PassageMatch
	err     error
	queries []string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query, organizationID string) ([]domain.PassageMatch, error) {
	f.queries = append(f.queries, query)
	return f.matches, f.err
}

type fakeResponder struct {
	result domain.AgentResult
	err    error
	inputs []ai.ResponderInput
	hang   bool
}

func (f *fakeResponder) Respond(ctx context.Context, input ai.ResponderInput) (domain.AgentResult, error) {
	f.inputs = append(f.inputs, input)
	if f.hang {
		<-ctx.Done()
		return domain.AgentResult{}, ctx.Err()
	}
	if f.err != nil {
		return domain.AgentResult{}, f.err
	}
	return f.result, nil
}

var errProvider = errors.New("provider unreachable")
