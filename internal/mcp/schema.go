package mcp

import (
	"fmt"

	"github.com/google/generative-ai-go/genai"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
)

// convertSchema translates an MCP tool input schema into a Gemini function
// parameter schema. Vendor keywords like $schema and additionalProperties
// have no field to land in, so they are dropped by construction.
func convertSchema(in mcpgo.ToolInputSchema) *genai.Schema {
	out := &genai.Schema{
		Type:     schemaType(in.Type),
		Required: in.Required,
	}
	if len(in.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(in.Properties))
		for name, prop := range in.Properties {
			m, ok := prop.(map[string]any)
			if !ok {
				out.Properties[name] = &genai.Schema{Type: genai.TypeString}
				continue
			}
			out.Properties[name] = convertProperty(m)
		}
	}
	return out
}

func convertProperty(m map[string]any) *genai.Schema {
	out := &genai.Schema{Type: genai.TypeString}
	if t, ok := m["type"].(string); ok {
		out.Type = schemaType(t)
	}
	if d, ok := m["description"].(string); ok {
		out.Description = d
	}
	if enum, ok := m["enum"].([]any); ok {
		for _, v := range enum {
			out.Enum = append(out.Enum, fmt.Sprint(v))
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		out.Items = convertProperty(items)
	}
	if props, ok := m["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			pm, ok := prop.(map[string]any)
			if !ok {
				out.Properties[name] = &genai.Schema{Type: genai.TypeString}
				continue
			}
			out.Properties[name] = convertProperty(pm)
		}
	}
	if req, ok := m["required"].([]any); ok {
		for _, v := range req {
			if s, ok := v.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}
	return out
}

// schemaType maps JSON schema type names to Gemini types. Unknown or empty
// types default to string, the safest parameter type for tool calls.
func schemaType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
