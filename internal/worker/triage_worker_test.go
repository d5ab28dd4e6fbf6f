package worker

import (
	"testing"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
)

func TestShouldTriage(t *testing.T) {
	userID := "user-1"
	cases := []struct {
		name    string
		payload events.TicketMessageAddedPayload
		want    bool
	}{
		{
			name: "customer public reply",
			payload: events.TicketMessageAddedPayload{
				AuthorType:  domain.AuthorTypeUser,
				AuthorID:    &userID,
				MessageType: domain.MessageTypePublicReply,
			},
			want: true,
		},
		{
			name: "staff reply",
			payload: events.TicketMessageAddedPayload{
				AuthorType:  domain.AuthorTypeStaff,
				MessageType: domain.MessageTypePublicReply,
			},
			want: false,
		},
		{
			name: "internal note",
			payload: events.TicketMessageAddedPayload{
				AuthorType:  domain.AuthorTypeUser,
				MessageType: domain.MessageTypeInternalNote,
			},
			want: false,
		},
		{
			name: "ai reply never loops back",
			payload: events.TicketMessageAddedPayload{
				AuthorType:    domain.AuthorTypeSystem,
				MessageType:   domain.MessageTypePublicReply,
				IsAIGenerated: true,
			},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := shouldTriage(tc.payload); got != tc.want {
				t.Errorf("shouldTriage() = %v, want %v", got, tc.want)
			}
		})
	}
}
