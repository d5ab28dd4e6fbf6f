package ai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ScreenResult is the content screener's verdict on a message.
type ScreenResult struct {
	Flagged bool
	Reason  string
}

// Screener classifies inbound message content as flagged or not.
type Screener interface {
	Screen(ctx context.Context, text string, attachmentIDs []string) (ScreenResult, error)
}

// ModerationScreener checks content via the OpenAI moderation endpoint.
type ModerationScreener struct {
	client *openai.Client
	logger *zap.Logger
}

// NewModerationScreener constructs the screener.
func NewModerationScreener(client *openai.Client, logger *zap.Logger) *ModerationScreener {
	return &ModerationScreener{client: client, logger: logger}
}

// Screen classifies the message text. Attachment ids are appended to the
// input so filenames with abusive content get caught too; attachment bodies
// are not fetched here.
func (s *ModerationScreener) Screen(ctx context.Context, text string, attachmentIDs []string) (ScreenResult, error) {
	input := text
	for _, id := range attachmentIDs {
		input += "\nattachment: " + id
	}

	resp, err := s.client.Moderations(ctx, openai.ModerationRequest{
		Input: input,
		Model: openai.ModerationTextStable,
	})
	if err != nil {
		s.logger.Error("moderation call failed", zap.Error(err))
		return ScreenResult{}, fmt.Errorf("moderation: %w", err)
	}
	if len(resp.Results) == 0 {
		return ScreenResult{}, errors.New("moderation: empty result")
	}

	result := resp.Results[0]
	if !result.Flagged {
		return ScreenResult{}, nil
	}
	return ScreenResult{Flagged: true, Reason: flagReason(result.Categories)}, nil
}

func flagReason(categories openai.ResultCategories) string {
	switch {
	case categories.SelfHarm || categories.SelfHarmIntent || categories.SelfHarmInstructions:
		return "self-harm"
	case categories.SexualMinors:
		return "sexual/minors"
	case categories.Sexual:
		return "sexual"
	case categories.HateThreatening:
		return "hate/threatening"
	case categories.Hate:
		return "hate"
	case categories.HarassmentThreatening:
		return "harassment/threatening"
	case categories.Harassment:
		return "harassment"
	case categories.ViolenceGraphic:
		return "violence/graphic"
	case categories.Violence:
		return "violence"
	default:
		return "policy violation"
	}
}
