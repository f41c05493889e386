package mcp

import (
	"context"
	"fmt"

	"github.com/flintbot/flint/internal/extensions"
	"github.com/flintbot/flint/internal/llm"
)

// Invoker dispatches a prompt to a named tool server. Orchestrators depend
// on this interface so tests can stub tool output.
type Invoker interface {
	Invoke(ctx context.Context, tool, prompt string) (string, error)
}

// Runner resolves tool names through the registry and runs invocations.
// The registry is reloaded before every dispatch so config edits take
// effect without a restart.
type Runner struct {
	registry *extensions.Registry
	gen      llm.Generator
}

// NewRunner wires a runner over the registry and generator.
func NewRunner(registry *extensions.Registry, gen llm.Generator) *Runner {
	return &Runner{registry: registry, gen: gen}
}

// Invoke reloads the registry, resolves the tool and runs the prompt.
// Registry load failures are hard errors; a missing, disabled or
// unlaunchable tool is a ToolError.
func (r *Runner) Invoke(ctx context.Context, tool, prompt string) (string, error) {
	if err := r.registry.Reload(); err != nil {
		return "", fmt.Errorf("reload tool config: %w", err)
	}

	d, ok := r.registry.Resolve(tool)
	if !ok {
		return "", &ToolError{Tool: tool, Err: fmt.Errorf("not configured")}
	}
	if !d.Enabled {
		return "", &ToolError{Tool: tool, Err: fmt.Errorf("disabled")}
	}

	launch, err := d.Launch()
	if err != nil {
		return "", &ToolError{Tool: tool, Err: err}
	}

	return NewClient(tool, launch, r.gen).Invoke(ctx, prompt)
}

// Registry exposes the underlying registry for listing surfaces.
func (r *Runner) Registry() *extensions.Registry {
	return r.registry
}
