// Package llm wraps the Gemini API behind small interfaces so orchestrators
// and tool clients can be tested with fakes.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrEmptyGeneration is returned when the model produced no usable text for
// an operation that requires it.
var ErrEmptyGeneration = errors.New("model returned no content")

// Request is a single generation call. Contents carries the conversation in
// order; the last content is the active turn.
type Request struct {
	Contents          []*genai.Content
	Tools             []*genai.Tool
	Temperature       *float32
	SystemInstruction string
}

// Generator produces model responses. The concrete implementation is
// Gemini; tests substitute stubs.
type Generator interface {
	Generate(ctx context.Context, req Request) (*genai.GenerateContentResponse, error)
}

// Embedder produces embedding vectors for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Gemini is the production Generator and Embedder.
type Gemini struct {
	client         *genai.Client
	modelName      string
	embeddingModel string
}

// NewGemini dials the Gemini API with an API key.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{
		client:         client,
		modelName:      modelName,
		embeddingModel: "text-embedding-004",
	}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// Generate runs one generation call. Multi-content requests are replayed as
// chat history with the final content as the active message.
func (g *Gemini) Generate(ctx context.Context, req Request) (*genai.GenerateContentResponse, error) {
	m := g.client.GenerativeModel(g.modelName)
	if req.Temperature != nil {
		m.SetTemperature(*req.Temperature)
	}
	if len(req.Tools) > 0 {
		m.Tools = req.Tools
	}
	if req.SystemInstruction != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemInstruction)},
		}
	}

	if len(req.Contents) == 0 {
		return nil, errors.New("generate: empty request")
	}
	if len(req.Contents) == 1 {
		return m.GenerateContent(ctx, req.Contents[0].Parts...)
	}

	cs := m.StartChat()
	cs.History = req.Contents[:len(req.Contents)-1]
	last := req.Contents[len(req.Contents)-1]
	return cs.SendMessage(ctx, last.Parts...)
}

// Describe asks the vision model for a description of an image.
func (g *Gemini) Describe(ctx context.Context, data []byte, format, prompt string) (string, error) {
	m := g.client.GenerativeModel(g.modelName)
	resp, err := m.GenerateContent(ctx, genai.ImageData(format, data), genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("describe image: %w", err)
	}
	text := ResponseText(resp)
	if text == "" {
		return "", ErrEmptyGeneration
	}
	return text, nil
}

// Embed returns the embedding vector for the text.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	em := g.client.EmbeddingModel(g.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if res.Embedding == nil {
		return nil, ErrEmptyGeneration
	}
	return res.Embedding.Values, nil
}

// UserText builds a single user content from a prompt string.
func UserText(prompt string) []*genai.Content {
	return []*genai.Content{{
		Role:  "user",
		Parts: []genai.Part{genai.Text(prompt)},
	}}
}

// ResponseText concatenates the text parts of the first candidate. Returns
// "" when the response has no candidates, no content or no text parts.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range c.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
