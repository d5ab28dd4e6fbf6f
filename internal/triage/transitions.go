package triage

import (
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// workflowUpdateFor maps the generator's next action to a ticket mutation.
// Returns nil when nothing should change. Escalate bumps priority and leaves
// status alone; every other action is a forward status move:
//
//	close             -> RESOLVED
//	wait_for_customer -> WAITING_ON_CUSTOMER
//	follow_up         -> IN_PROGRESS
//	escalate          -> priority HIGH
//	none / unknown    -> no mutation
func workflowUpdateFor(action domain.NextAction, ticket *domain.Ticket) *repository.WorkflowUpdate {
	switch action {
	case domain.NextActionClose:
		return statusUpdate(ticket, domain.TicketStatusResolved)
	case domain.NextActionWaitForCustomer:
		return statusUpdate(ticket, domain.TicketStatusWaitingOnCustomer)
	case domain.NextActionFollowUp:
		return statusUpdate(ticket, domain.TicketStatusInProgress)
	case domain.NextActionEscalate:
		if ticket.Priority == domain.TicketPriorityHigh || ticket.Priority == domain.TicketPriorityUrgent {
			return nil
		}
		priority := domain.TicketPriorityHigh
		return &repository.WorkflowUpdate{Priority: &priority, Revision: ticket.Revision}
	default:
		return nil
	}
}

func statusUpdate(ticket *domain.Ticket, target domain.TicketStatus) *repository.WorkflowUpdate {
	if ticket.Status == target {
		return nil
	}
	return &repository.WorkflowUpdate{Status: &target, Revision: ticket.Revision}
}
