package triage

import (
	"testing"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestWorkflowUpdateForActions(t *testing.T) {
	base := func() *domain.Ticket {
		return &domain.Ticket{
			ID:       "t1",
			Status:   domain.TicketStatusOpen,
			Priority: domain.TicketPriorityMedium,
			Revision: 7,
		}
	}

	t.Run("close resolves", func(t *testing.T) {
		update := workflowUpdateFor(domain.NextActionClose, base())
		if update == nil || update.Status == nil || *update.Status != domain.TicketStatusResolved {
			t.Fatalf("update = %+v", update)
		}
		if update.Revision != 7 {
			t.Errorf("revision = %d, want 7", update.Revision)
		}
	})

	t.Run("wait_for_customer", func(t *testing.T) {
		update := workflowUpdateFor(domain.NextActionWaitForCustomer, base())
		if update == nil || *update.Status != domain.TicketStatusWaitingOnCustomer {
			t.Fatalf("update = %+v", update)
		}
	})

	t.Run("follow_up moves to in progress", func(t *testing.T) {
		update := workflowUpdateFor(domain.NextActionFollowUp, base())
		if update == nil || *update.Status != domain.TicketStatusInProgress {
			t.Fatalf("update = %+v", update)
		}
	})

	t.Run("escalate bumps priority not status", func(t *testing.T) {
		update := workflowUpdateFor(domain.NextActionEscalate, base())
		if update == nil || update.Priority == nil || *update.Priority != domain.TicketPriorityHigh {
			t.Fatalf("update = %+v", update)
		}
		if update.Status != nil {
			t.Error("escalate must not set status")
		}
	})

	t.Run("escalate noop when already high", func(t *testing.T) {
		ticket := base()
		ticket.Priority = domain.TicketPriorityHigh
		if update := workflowUpdateFor(domain.NextActionEscalate, ticket); update != nil {
			t.Errorf("update = %+v, want nil", update)
		}
	})

	t.Run("none is noop", func(t *testing.T) {
		if update := workflowUpdateFor(domain.NextActionNone, base()); update != nil {
			t.Errorf("update = %+v, want nil", update)
		}
	})

	t.Run("status noop when already at target", func(t *testing.T) {
		ticket := base()
		ticket.Status = domain.TicketStatusResolved
		if update := workflowUpdateFor(domain.NextActionClose, ticket); update != nil {
			t.Errorf("update = %+v, want nil", update)
		}
	})
}
