package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestTransitionAllowed(t *testing.T) {
	cases := []struct {
		from domain.TicketStatus
		to   domain.TicketStatus
		want bool
	}{
		{domain.TicketStatusOpen, domain.TicketStatusInProgress, true},
		{domain.TicketStatusOpen, domain.TicketStatusResolved, true},
		{domain.TicketStatusInProgress, domain.TicketStatusWaitingOnCustomer, true},
		{domain.TicketStatusWaitingOnCustomer, domain.TicketStatusInProgress, true},
		{domain.TicketStatusResolved, domain.TicketStatusClosed, true},
		{domain.TicketStatusResolved, domain.TicketStatusInProgress, true},
		{domain.TicketStatusClosed, domain.TicketStatusOpen, false},
		{domain.TicketStatusCancelled, domain.TicketStatusInProgress, false},
		{domain.TicketStatusOpen, domain.TicketStatusClosed, false},
	}
	for _, tc := range cases {
		if got := transitionAllowed(tc.from, tc.to); got != tc.want {
			t.Errorf("transitionAllowed(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestGenerateTicketKey(t *testing.T) {
	key := generateTicketKey()
	if !strings.HasPrefix(key, "TCK-") {
		t.Errorf("key %q missing TCK- prefix", key)
	}
	if key == generateTicketKey() {
		t.Error("consecutive keys should differ")
	}
}

func TestPreviewTruncates(t *testing.T) {
	long := strings.Repeat("a", 500)
	if got := preview(long); len(got) != 140 {
		t.Errorf("preview length = %d, want 140", len(got))
	}
	if got := preview("short"); got != "short" {
		t.Errorf("preview(short) = %q", got)
	}
}

func TestPreviewKeepsRunesIntact(t *testing.T) {
	// 70 three-byte runes put a rune straddling the 140-byte cut
	long := strings.Repeat("然", 70)
	got := preview(long)
	if !utf8.ValidString(got) {
		t.Fatalf("preview produced invalid UTF-8: %q", got)
	}
	if len(got) > 140 {
		t.Errorf("preview length = %d, want <= 140", len(got))
	}
	if !strings.HasPrefix(long, got) {
		t.Errorf("preview %q is not a prefix of the body", got)
	}
}

func TestNormalizeLimit(t *testing.T) {
	if got := normalizeLimit(0); got != 20 {
		t.Errorf("normalizeLimit(0) = %d", got)
	}
	if got := normalizeLimit(500); got != 20 {
		t.Errorf("normalizeLimit(500) = %d", got)
	}
	if got := normalizeLimit(50); got != 50 {
		t.Errorf("normalizeLimit(50) = %d", got)
	}
}
