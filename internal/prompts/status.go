package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the bank-status MCP prompt.
// It instructs the AI to read and present the current bank state.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("bank-status",
		mcp.WithPromptDescription(
			"Check the state of the current project's memory bank. "+
				"Shows which files exist, how complete they are, and what's "+
				"worth filling in next.",
		),
	)
}

// Handle processes the bank-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Memory Bank Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please check the state of my project's memory bank.\n\n" +
						"Then:\n" +
						"1. Run `bank_resolve_project` and confirm which project this session is on\n" +
						"2. Run `bank_health` and show me the score with a short per-file breakdown\n" +
						"3. If files are missing or thin, tell me exactly what to add and offer to run " +
						"`bank_init` or `bank_write` for me\n" +
						"4. Finish with a one-paragraph summary of what the bank currently knows, " +
						"based on `bank_context` with detail='summary'",
				),
			},
		},
	}, nil
}
