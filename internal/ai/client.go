// Package ai holds the OpenAI-backed implementations of the triage pipeline's
// capability interfaces: content screening, query embedding and response
// generation. Each stage is constructed separately so callers can swap in
// deterministic fakes.
package ai

import (
	openai "github.com/sashabaranov/go-openai"

	"github.com/spec-kit/helpdesk/internal/config"
)

// NewClient builds the shared OpenAI API client.
func NewClient(cfg config.OpenAIConfig) *openai.Client {
	return openai.NewClient(cfg.APIKey)
}
