package rag

import (
	"strings"

	prose "github.com/tsawler/prose/v3"
)

// maxChunkLen is the target chunk size in bytes. Sentences are packed into
// chunks up to this size so a chunk never splits mid-sentence.
const maxChunkLen = 1000

// SplitSentences breaks text into sentence-sized pieces. Falls back to
// newline splitting when sentence detection fails.
func SplitSentences(text string) []string {
	doc, err := prose.NewDocument(text, prose.WithTagging(false), prose.WithExtraction(false))
	if err != nil {
		var out []string
		for _, line := range strings.Split(text, "\n") {
			if s := strings.TrimSpace(line); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	var out []string
	for _, sent := range doc.Sentences() {
		if s := strings.TrimSpace(sent.Text); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ChunkText packs sentences into chunks of at most maxChunkLen bytes. A
// single oversized sentence becomes its own chunk rather than being split.
func ChunkText(text string) []string {
	sentences := SplitSentences(text)

	var chunks []string
	var current strings.Builder
	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+1+len(sentence) > maxChunkLen {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
