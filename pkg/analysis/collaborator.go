package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"finsight-api/pkg/llm"
)

// Collaborator produces the next directive for a stage conversation. The
// production implementation is LLM-backed; tests substitute scripted stubs.
type Collaborator interface {
	Next(ctx context.Context, exchange *Exchange) (*Directive, error)
}

// LLMCollaborator drives an LLM client through structured output.
type LLMCollaborator struct {
	client llm.LLMClient
	model  string
}

// NewLLMCollaborator wires a collaborator on top of an LLM client. model may
// be empty to use the client's default.
func NewLLMCollaborator(client llm.LLMClient, model string) (*LLMCollaborator, error) {
	if client == nil {
		return nil, errors.New("analysis: llm client is required")
	}
	return &LLMCollaborator{client: client, model: model}, nil
}

// Next renders the exchange into a chat request and decodes the directive.
func (c *LLMCollaborator) Next(ctx context.Context, exchange *Exchange) (*Directive, error) {
	if exchange == nil {
		return nil, errors.New("analysis: exchange is required")
	}

	req := &llm.ChatRequest{
		Model:    c.model,
		Messages: buildMessages(exchange),
	}

	var directive Directive
	if err := c.client.ChatStructured(ctx, req, &directive); err != nil {
		return nil, fmt.Errorf("collaborator directive for stage %s: %w", exchange.Stage, err)
	}
	return &directive, nil
}

func buildMessages(exchange *Exchange) []llm.Message {
	var system strings.Builder
	system.WriteString(exchange.Prompt)
	system.WriteString("\n\nAvailable tools for this stage:\n")
	for _, name := range exchange.Capabilities {
		system.WriteString("  - " + name + "\n")
	}
	system.WriteString("\nReply with a directive: action \"tool\" plus tool and args to gather data, " +
		"or action \"finish\" plus text to conclude the stage.")

	messages := []llm.Message{{Role: "system", Content: system.String()}}

	var opening strings.Builder
	fmt.Fprintf(&opening, "Symbol under analysis: %s\n", exchange.Symbol)
	if strings.TrimSpace(exchange.Context) != "" {
		opening.WriteString("\nFindings from earlier stages:\n")
		opening.WriteString(exchange.Context)
	}
	messages = append(messages, llm.Message{Role: "user", Content: opening.String()})

	for _, step := range exchange.Transcript {
		argsJSON, _ := json.Marshal(step.Args)
		messages = append(messages,
			llm.Message{Role: "assistant", Content: fmt.Sprintf("called %s with %s", step.Tool, argsJSON)},
			llm.Message{Role: "user", Content: step.Result},
		)
	}
	return messages
}
