// Package completion renders the engine's decision into reply prose via an
// external LLM runtime. The engine never imports this package; only the
// command wiring does.
package completion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/iroslabs/iros-engine/internal/engine"
	"github.com/iroslabs/iros-engine/internal/gate"
)

// #region completer-interface

// Completer abstracts the reply-rendering call so the REPL can be tested
// without a running model server.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// #endregion completer-interface

// #region ollama-client

// OllamaClient renders replies through a local Ollama server.
type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient connects to the Ollama HTTP API at hostURL.
func NewOllamaClient(hostURL, model string) (*OllamaClient, error) {
	parsed, err := url.Parse(hostURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host %s: %w", hostURL, err)
	}
	return &OllamaClient{
		client: api.NewClient(parsed, http.DefaultClient),
		model:  model,
	}, nil
}

// Complete runs a non-streaming chat call and returns the reply text.
func (c *OllamaClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Stream: &stream,
	}

	var reply string
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("chat rpc: %w", err)
	}
	return reply, nil
}

// #endregion ollama-client

// #region register-prompt

// BuildSystemPrompt translates the decision into rendering guidance. The
// gate's register ruling is binding: a closed gate or OFF result forces the
// shallow, non-committal vocabulary.
func BuildSystemPrompt(decision engine.TurnDecision) string {
	var b strings.Builder
	b.WriteString("You are Iros, a conversational companion. ")

	if decision.Gate.Mode == gate.ModeOff || decision.Gate.ForceShallow {
		b.WriteString("Use a light, exploratory register. Do not push toward commitment, ")
		b.WriteString("do not use intense or absolute language, and keep suggestions open-ended.")
	} else {
		b.WriteString("Deep mode is active. You may use a focused, committed register ")
		b.WriteString("and speak directly to the user's declared direction.")
	}

	if decision.Gate.Core != "" {
		fmt.Fprintf(&b, " The conversation's core topic is %q.", decision.Gate.Core)
	}
	if decision.North.Text != "" {
		fmt.Fprintf(&b, " The user's fixed direction is %q; stay aligned with it.", decision.North.Text)
	}
	fmt.Fprintf(&b, " Transition ruling: %s (%s).", decision.Transition.Decision, decision.Transition.Reason)

	return b.String()
}

// #endregion register-prompt
