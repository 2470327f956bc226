package rulebook

import (
	"strings"

	"github.com/jdkato/prose/v2"
)

// Chunking limits for rule extraction: the collaborator has an input-size
// ceiling, and we cap the number of chunks to bound latency and cost.
const (
	maxChunkChars = 12000
	maxChunks     = 2
)

// chunkText splits rulebook text into at most maxChunks pieces of at most
// maxChunkChars each, preferring sentence boundaries so no rule statement is
// cut mid-sentence.
func chunkText(text string) []string {
	if len(text) <= maxChunkChars {
		return []string{text}
	}

	sentences := splitSentences(text)

	var chunks []string
	var current strings.Builder

	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+len(sentence)+1 > maxChunkChars {
			chunks = append(chunks, current.String())
			if len(chunks) == maxChunks {
				return chunks
			}
			current.Reset()
		}

		// A single oversized sentence gets hard-split.
		for len(sentence) > maxChunkChars {
			chunks = append(chunks, sentence[:maxChunkChars])
			if len(chunks) == maxChunks {
				return chunks
			}
			sentence = sentence[maxChunkChars:]
		}

		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}

	if current.Len() > 0 && len(chunks) < maxChunks {
		chunks = append(chunks, current.String())
	}

	return chunks
}

func splitSentences(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		// Segmentation failure degrades to whole-text hard splitting.
		return []string{text}
	}

	sentences := doc.Sentences()
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if trimmed := strings.TrimSpace(s.Text); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}
