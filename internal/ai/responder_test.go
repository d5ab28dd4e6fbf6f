package ai

import (
	"strings"
	"testing"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestParseAgentResult(t *testing.T) {
	raw := `{"response":"Try resetting your password.","confidence_score":0.82,"needs_human_review":false,"human_review_reason":null,"next_action":"wait_for_customer"}`

	result, err := ParseAgentResult(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if result.Response != "Try resetting your password." {
		t.Errorf("response = %q", result.Response)
	}
	if result.ConfidenceScore != 0.82 {
		t.Errorf("confidence = %v", result.ConfidenceScore)
	}
	if result.NeedsHumanReview {
		t.Error("needs_human_review should be false")
	}
	if result.NextAction != domain.NextActionWaitForCustomer {
		t.Errorf("next_action = %s", result.NextAction)
	}
}

func TestParseAgentResultStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"response\":\"ok\",\"confidence_score\":0.5,\"needs_human_review\":true,\"human_review_reason\":\"upset customer\",\"next_action\":\"escalate\"}\n```"

	result, err := ParseAgentResult(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if result.NextAction != domain.NextActionEscalate {
		t.Errorf("next_action = %s", result.NextAction)
	}
	if result.HumanReviewReason == nil || *result.HumanReviewReason != "upset customer" {
		t.Errorf("human_review_reason = %v", result.HumanReviewReason)
	}
}

func TestParseAgentResultUnknownActionDefaultsToNone(t *testing.T) {
	raw := `{"response":"hello","confidence_score":0.3,"needs_human_review":false,"human_review_reason":null,"next_action":"reopen"}`

	result, err := ParseAgentResult(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if result.NextAction != domain.NextActionNone {
		t.Errorf("next_action = %s, want none", result.NextAction)
	}
}

func TestParseAgentResultRejectsInvalidJSON(t *testing.T) {
	if _, err := ParseAgentResult("sorry, I cannot help with that"); err == nil {
		t.Fatal("expected error for non-JSON output")
	}
}

func TestParseAgentResultRejectsEmptyResponse(t *testing.T) {
	raw := `{"response":"  ","confidence_score":0.9,"needs_human_review":false,"human_review_reason":null,"next_action":"close"}`
	_, err := ParseAgentResult(raw)
	if err == nil || !strings.Contains(err.Error(), "empty response") {
		t.Fatalf("expected empty response error, got %v", err)
	}
}
