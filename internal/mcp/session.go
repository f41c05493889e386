package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/flintbot/flint/internal/extensions"
)

// stdioSession is the production session: a tool server subprocess spoken
// to over stdin/stdout, torn down when the invocation finishes.
type stdioSession struct {
	c *client.Client
}

func startStdioSession(ctx context.Context, launch extensions.Launch) (session, error) {
	env := make([]string, 0, len(launch.Env))
	for k, v := range launch.Env {
		env = append(env, k+"="+v)
	}

	c, err := client.NewStdioMCPClient(launch.Command, env, launch.Args...)
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", launch.Command, err)
	}

	initReq := mcpgo.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpgo.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpgo.Implementation{
		Name:    "flint",
		Version: "1.0.0",
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize: %w", err)
	}

	return &stdioSession{c: c}, nil
}

func (s *stdioSession) ListTools(ctx context.Context) ([]mcpgo.Tool, error) {
	res, err := s.c.ListTools(ctx, mcpgo.ListToolsRequest{})
	if err != nil {
		return nil, err
	}
	return res.Tools, nil
}

// CallTool runs the named tool and flattens the text content blocks of the
// result into one string.
func (s *stdioSession) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.c.CallTool(ctx, req)
	if err != nil {
		return "", err
	}

	var out string
	for _, content := range res.Content {
		if text, ok := content.(mcpgo.TextContent); ok {
			if out != "" {
				out += "\n"
			}
			out += text.Text
		}
	}
	if res.IsError {
		return "", fmt.Errorf("tool %s reported error: %s", name, out)
	}
	return out, nil
}

func (s *stdioSession) Close() error {
	return s.c.Close()
}
