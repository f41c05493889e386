// Package mcp runs one-shot natural-language invocations against external
// MCP tool servers. Each invocation starts the server subprocess over
// stdio, lists its tools, lets the model decide whether to call one, and
// tears the session down again.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/flintbot/flint/internal/extensions"
	"github.com/flintbot/flint/internal/llm"
	"github.com/flintbot/flint/internal/logging"
)

// ToolError marks a failure scoped to a single tool server. Orchestrators
// treat these as soft and substitute placeholder text; anything else is a
// hard failure.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// IsToolError reports whether err is (or wraps) a ToolError.
func IsToolError(err error) bool {
	var te *ToolError
	return errors.As(err, &te)
}

// session is the slice of an MCP connection the client needs. The stdio
// implementation lives in session.go; tests substitute stubs.
type session interface {
	ListTools(ctx context.Context) ([]mcpgo.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
	Close() error
}

// newSession is swapped out in tests.
var newSession = startStdioSession

// Client invokes one tool server with natural-language prompts.
type Client struct {
	name   string
	launch extensions.Launch
	gen    llm.Generator
}

// NewClient builds a client for the named tool server.
func NewClient(name string, launch extensions.Launch, gen llm.Generator) *Client {
	return &Client{name: name, launch: launch, gen: gen}
}

// Invoke sends the prompt to the model with the server's tools attached and
// returns the final text. At most one tool call round trip is performed.
// An empty-handed model response returns "" plus a ToolError; the specific
// reason is logged with the tool name.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	prompt = c.applyPromptPrefix(prompt)

	sess, err := newSession(ctx, c.launch)
	if err != nil {
		return "", &ToolError{Tool: c.name, Err: fmt.Errorf("start session: %w", err)}
	}
	defer sess.Close()

	tools, err := sess.ListTools(ctx)
	if err != nil {
		return "", &ToolError{Tool: c.name, Err: fmt.Errorf("list tools: %w", err)}
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  convertSchema(tool.InputSchema),
		})
	}
	logging.Debug("mcp", "%s: %d tools listed", c.name, len(decls))

	temp := float32(0)
	req := llm.Request{
		Contents:    llm.UserText(prompt),
		Temperature: &temp,
	}
	if len(decls) > 0 {
		req.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	resp, err := c.gen.Generate(ctx, req)
	if err != nil {
		return "", &ToolError{Tool: c.name, Err: fmt.Errorf("generate: %w", err)}
	}

	part, err := c.firstPart(resp)
	if err != nil {
		return "", err
	}

	switch p := part.(type) {
	case genai.Text:
		return string(p), nil
	case genai.FunctionCall:
		return c.completeToolCall(ctx, sess, prompt, p, req)
	default:
		logging.Error("mcp", "%s: model response part is neither text nor function call (%T)", c.name, part)
		return "", &ToolError{Tool: c.name, Err: fmt.Errorf("unusable response part %T", part)}
	}
}

// completeToolCall executes the requested tool and feeds the result back
// for exactly one follow-up generation.
func (c *Client) completeToolCall(ctx context.Context, sess session, prompt string, call genai.FunctionCall, req llm.Request) (string, error) {
	logging.Debug("mcp", "%s: calling tool %s", c.name, call.Name)

	result, err := sess.CallTool(ctx, call.Name, call.Args)
	if err != nil {
		return "", &ToolError{Tool: c.name, Err: fmt.Errorf("call %s: %w", call.Name, err)}
	}

	followUp := req
	followUp.Contents = []*genai.Content{
		{Role: "user", Parts: []genai.Part{genai.Text(prompt)}},
		{Role: "model", Parts: []genai.Part{call}},
		{Role: "user", Parts: []genai.Part{genai.FunctionResponse{
			Name:     call.Name,
			Response: map[string]any{"result": result},
		}}},
	}

	resp, err := c.gen.Generate(ctx, followUp)
	if err != nil {
		return "", &ToolError{Tool: c.name, Err: fmt.Errorf("follow-up generate: %w", err)}
	}

	text := llm.ResponseText(resp)
	if text == "" {
		logging.Error("mcp", "%s: empty follow-up response after tool call %s", c.name, call.Name)
		return "", &ToolError{Tool: c.name, Err: llm.ErrEmptyGeneration}
	}
	return text, nil
}

// firstPart extracts the first part of the first candidate, logging each
// distinct absence with the tool name so degraded runs can be diagnosed
// from the logs alone.
func (c *Client) firstPart(resp *genai.GenerateContentResponse) (genai.Part, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		logging.Error("mcp", "%s: model response has no candidates", c.name)
		return nil, &ToolError{Tool: c.name, Err: llm.ErrEmptyGeneration}
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		logging.Error("mcp", "%s: model candidate has no content", c.name)
		return nil, &ToolError{Tool: c.name, Err: llm.ErrEmptyGeneration}
	}
	if len(cand.Content.Parts) == 0 {
		logging.Error("mcp", "%s: model content has no parts", c.name)
		return nil, &ToolError{Tool: c.name, Err: llm.ErrEmptyGeneration}
	}
	return cand.Content.Parts[0], nil
}

// applyPromptPrefix prepends the per-tool prompt prefix when the
// <NAME>_PROMPT environment variable is set. Both upper and lower casings
// of the tool name are honored.
func (c *Client) applyPromptPrefix(prompt string) string {
	for _, key := range []string{
		strings.ToUpper(c.name) + "_PROMPT",
		strings.ToLower(c.name) + "_PROMPT",
	} {
		if prefix := os.Getenv(key); prefix != "" {
			return prefix + "\n" + prompt
		}
	}
	return prompt
}
