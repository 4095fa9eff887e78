// Package prompts implements MCP prompt handlers for the memory bank.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the bank-start MCP prompt.
// It guides the AI through onboarding a project into the memory bank.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("bank-start",
		mcp.WithPromptDescription(
			"Set up the memory bank for the current project. "+
				"Resolves which project you're in, scaffolds the six bank files, "+
				"and seeds the project brief.",
		),
		mcp.WithArgument("project_name",
			mcp.ArgumentDescription("Project name (leave empty to detect from the working directory)"),
		),
	)
}

// Handle processes the bank-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectName := ""
	if args := req.Params.Arguments; args != nil {
		if name, ok := args["project_name"]; ok && name != "" {
			projectName = name
		}
	}

	resolveStep := "1. Run `bank_resolve_project` to detect the current project from the working directory. " +
		"If the detected name looks wrong or the confidence is low, ask me for the right name and pin it with `bank_set_project`\n"
	if projectName != "" {
		resolveStep = fmt.Sprintf("1. Run `bank_set_project` with project='%s' to pin the project for this session\n", projectName)
	}

	description := "Set up memory bank"
	if projectName != "" {
		description = fmt.Sprintf("Set up memory bank: %s", projectName)
	}

	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"I want to set up the memory bank for my project.\n\n" +
						"Please:\n" +
						resolveStep +
						"2. Run `bank_init` to scaffold the six bank files (it never overwrites existing ones)\n" +
						"3. Ask me what this project is and what it's for, then save my answer with `bank_write` " +
						"using file_name='projectbrief'\n" +
						"4. From now on, store durable decisions, patterns, and progress with `bank_write` as we work — " +
						"it routes content to the right file automatically",
				),
			},
		},
	}, nil
}
