package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketContext is the ticket state handed to the generator.
type TicketContext struct {
	Status       domain.TicketStatus
	Priority     domain.TicketPriority
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CreatedBy    string
	AssignedTo   *string
	AssignedTeam *string
}

// ResponderInput bundles everything the generator sees.
type ResponderInput struct {
	Message       string
	TicketID      string
	Context       TicketContext
	KnowledgeBase []domain.PassageMatch
}

// Responder produces a structured reply suggestion for a customer message.
type Responder interface {
	Respond(ctx context.Context, input ResponderInput) (domain.AgentResult, error)
}

// OpenAIResponder generates replies via a chat completion with a JSON output
// contract.
type OpenAIResponder struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewOpenAIResponder constructs the responder.
func NewOpenAIResponder(client *openai.Client, cfg config.OpenAIConfig, logger *zap.Logger) *OpenAIResponder {
	return &OpenAIResponder{
		client:      client,
		model:       cfg.ChatModel,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		logger:      logger,
	}
}

const responderSystemPrompt = `You are a support assistant drafting a reply to a customer message.
Use the provided knowledge base passages when they are relevant; do not invent policies.
Return ONLY a JSON object with this structure:
{
    "response": "the reply text for the customer",
    "confidence_score": 0.0,
    "needs_human_review": false,
    "human_review_reason": null,
    "next_action": "close" | "wait_for_customer" | "escalate" | "follow_up" | "none"
}
Set needs_human_review when the answer is uncertain, the customer is upset, or the request
has legal/billing impact, and explain why in human_review_reason.`

type agentResultPayload struct {
	Response          string  `json:"response"`
	ConfidenceScore   float64 `json:"confidence_score"`
	NeedsHumanReview  bool    `json:"needs_human_review"`
	HumanReviewReason *string `json:"human_review_reason"`
	NextAction        string  `json:"next_action"`
}

// Respond invokes the completion chain and parses its JSON contract. A reply
// the model failed to format is reported as an error, not passed through.
func (r *OpenAIResponder) Respond(ctx context.Context, input ResponderInput) (domain.AgentResult, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: responderSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(input)},
		},
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		r.logger.Error("completion call failed", zap.Error(err), zap.String("ticket_id", input.TicketID))
		return domain.AgentResult{}, fmt.Errorf("completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.AgentResult{}, fmt.Errorf("completion: no choices returned")
	}

	return ParseAgentResult(resp.Choices[0].Message.Content)
}

func buildUserPrompt(input ResponderInput) string {
	var sb strings.Builder
	sb.WriteString("Ticket ")
	sb.WriteString(input.TicketID)
	sb.WriteString("\nStatus: ")
	sb.WriteString(string(input.Context.Status))
	sb.WriteString("\nPriority: ")
	sb.WriteString(string(input.Context.Priority))
	sb.WriteString("\nCreated: ")
	sb.WriteString(input.Context.CreatedAt.Format(time.RFC3339))
	sb.WriteString("\nUpdated: ")
	sb.WriteString(input.Context.UpdatedAt.Format(time.RFC3339))
	sb.WriteString("\nCreated by: ")
	sb.WriteString(input.Context.CreatedBy)
	if input.Context.AssignedTo != nil {
		sb.WriteString("\nAssigned to: ")
		sb.WriteString(*input.Context.AssignedTo)
	}
	if input.Context.AssignedTeam != nil {
		sb.WriteString("\nAssigned team: ")
		sb.WriteString(*input.Context.AssignedTeam)
	}

	if len(input.KnowledgeBase) > 0 {
		sb.WriteString("\n\nKnowledge base passages:")
		for i, passage := range input.KnowledgeBase {
			sb.WriteString(fmt.Sprintf("\n%d. [%s/%s, similarity %.2f] %s",
				i+1, passage.SourceType, passage.SourceID, passage.Similarity, passage.Content))
		}
	} else {
		sb.WriteString("\n\nNo relevant knowledge base passages were found.")
	}

	sb.WriteString("\n\nCustomer message:\n")
	sb.WriteString(input.Message)
	return sb.String()
}

// ParseAgentResult decodes the model's JSON contract, tolerating a markdown
// code fence around the object.
func ParseAgentResult(raw string) (domain.AgentResult, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var payload agentResultPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return domain.AgentResult{}, fmt.Errorf("completion: parse agent result: %w", err)
	}
	if strings.TrimSpace(payload.Response) == "" {
		return domain.AgentResult{}, fmt.Errorf("completion: empty response text")
	}

	return domain.AgentResult{
		Response:          payload.Response,
		ConfidenceScore:   payload.ConfidenceScore,
		NeedsHumanReview:  payload.NeedsHumanReview,
		HumanReviewReason: payload.HumanReviewReason,
		NextAction:        normalizeNextAction(payload.NextAction),
	}, nil
}

func normalizeNextAction(raw string) domain.NextAction {
	switch domain.NextAction(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.NextActionClose:
		return domain.NextActionClose
	case domain.NextActionWaitForCustomer:
		return domain.NextActionWaitForCustomer
	case domain.NextActionEscalate:
		return domain.NextActionEscalate
	case domain.NextActionFollowUp:
		return domain.NextActionFollowUp
	default:
		return domain.NextActionNone
	}
}
