package rag

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flintbot/flint/internal/llm"
	"github.com/flintbot/flint/internal/logging"
)

// Engine indexes markdown folders and answers questions over them.
type Engine struct {
	store    *Store
	embedder llm.Embedder
	gen      llm.Generator
}

// NewEngine wires an engine over the chunk store and models.
func NewEngine(store *Store, embedder llm.Embedder, gen llm.Generator) *Engine {
	return &Engine{store: store, embedder: embedder, gen: gen}
}

// Index walks the given folders and (re-)indexes every markdown file.
// Returns the number of files indexed. Unreadable files are logged and
// skipped.
func (e *Engine) Index(ctx context.Context, folders []string) (int, error) {
	indexed := 0
	for _, folder := range folders {
		err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
				return nil
			}
			if err := e.indexFile(ctx, path); err != nil {
				logging.Error("rag", "index %s: %v", path, err)
				return nil
			}
			indexed++
			return nil
		})
		if err != nil {
			if os.IsNotExist(err) {
				logging.Error("rag", "folder %s does not exist, skipping", folder)
				continue
			}
			return indexed, fmt.Errorf("walk %s: %w", folder, err)
		}
	}
	logging.Info("rag", "Indexed %d files across %d folders", indexed, len(folders))
	return indexed, nil
}

func (e *Engine) indexFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	pieces := ChunkText(string(data))

	chunks := make([]Chunk, 0, len(pieces))
	for _, piece := range pieces {
		vec, err := e.embedder.Embed(ctx, piece)
		if err != nil {
			return fmt.Errorf("embed chunk: %w", err)
		}
		chunks = append(chunks, Chunk{Source: path, Content: piece, Embedding: vec})
	}
	return e.store.ReplaceSource(ctx, path, chunks)
}

// Answer retrieves the topK closest chunks to the question and asks the
// model to answer from them. The reply ends with a Sources list of the
// distinct files the context came from.
func (e *Engine) Answer(ctx context.Context, question string, topK int) (string, error) {
	qvec, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	chunks, err := e.store.All(ctx)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("nothing indexed yet")
	}

	top := Rank(chunks, qvec, topK)

	var contextText strings.Builder
	seen := map[string]bool{}
	var sources []string
	for _, c := range top {
		contextText.WriteString(c.Content)
		contextText.WriteString("\n---\n")
		name := filepath.Base(c.Source)
		if !seen[name] {
			seen[name] = true
			sources = append(sources, name)
		}
	}

	prompt := fmt.Sprintf(
		"Answer the question using only the context below. If the context does not "+
			"contain the answer, say so.\n\nContext:\n%s\nQuestion: %s",
		contextText.String(), question)

	resp, err := e.gen.Generate(ctx, llm.Request{Contents: llm.UserText(prompt)})
	if err != nil {
		return "", fmt.Errorf("answer: %w", err)
	}
	answer := strings.TrimSpace(llm.ResponseText(resp))
	if answer == "" {
		return "", llm.ErrEmptyGeneration
	}

	return answer + "\n\nSources: " + strings.Join(sources, ", "), nil
}

// Rank returns the topK chunks by cosine similarity to the query vector.
func Rank(chunks []Chunk, query []float32, topK int) []Chunk {
	type scored struct {
		chunk Chunk
		score float64
	}
	scoredChunks := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		scoredChunks = append(scoredChunks, scored{c, Cosine(c.Embedding, query)})
	}
	sort.Slice(scoredChunks, func(i, j int) bool {
		return scoredChunks[i].score > scoredChunks[j].score
	})
	if topK > len(scoredChunks) {
		topK = len(scoredChunks)
	}
	out := make([]Chunk, 0, topK)
	for _, sc := range scoredChunks[:topK] {
		out = append(out, sc.chunk)
	}
	return out
}

// Cosine computes cosine similarity. Mismatched or zero-length vectors
// score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
