package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/model"
)

// ChunkingError reports unusable chunking input.
type ChunkingError struct {
	Message string
}

func (e *ChunkingError) Error() string {
	return e.Message
}

// Options controls one chunking call.
type Options struct {
	TargetWords       int
	OverlapWords      int
	RespectBoundaries bool
}

// Chunker splits text into overlapping, word-bounded segments sized for a
// generative model's context window.
//
// Chunks target TargetWords with a ±10% tolerance band so a sentence is never
// cut mid-way, and consecutive chunks share roughly OverlapWords of trailing
// context.
type Chunker struct {
	segmenter Segmenter
	log       zerolog.Logger
}

// New creates a Chunker with an injected sentence segmenter.
func New(segmenter Segmenter, log zerolog.Logger) *Chunker {
	return &Chunker{
		segmenter: segmenter,
		log:       log.With().Str("component", "chunker").Logger(),
	}
}

// Chunk splits text into ordered TextChunks. It is a pure function of its
// inputs plus the injected segmenter.
func (c *Chunker) Chunk(text string, opts Options) (*model.ChunkingResponse, error) {
	start := time.Now()

	if strings.TrimSpace(text) == "" {
		return nil, &ChunkingError{Message: "cannot chunk empty text"}
	}

	originalWordCount := len(strings.Fields(text))
	minWords := int(float64(opts.TargetWords) * 0.9)

	// Short inputs get a single chunk spanning the whole text.
	if originalWordCount <= minWords {
		chunk := newChunk(strings.TrimSpace(text), 0, 0, len(text), false, false)
		return &model.ChunkingResponse{
			Chunks:            []model.TextChunk{chunk},
			TotalChunks:       1,
			OriginalWordCount: originalWordCount,
			ChunkingTimeMs:    time.Since(start).Milliseconds(),
		}, nil
	}

	var sentences []string
	if opts.RespectBoundaries {
		sentences = c.segmenter.Segment(text)
	} else {
		// Word-based chunking treats each word as its own segment.
		sentences = strings.Fields(text)
	}

	chunks := buildChunks(sentences, text, opts.TargetWords, opts.OverlapWords, minWords)

	elapsed := time.Since(start)
	c.log.Info().
		Int("original_words", originalWordCount).
		Int("chunks", len(chunks)).
		Int64("time_ms", elapsed.Milliseconds()).
		Msg("Text chunking completed")

	return &model.ChunkingResponse{
		Chunks:            chunks,
		TotalChunks:       len(chunks),
		OriginalWordCount: originalWordCount,
		ChunkingTimeMs:    elapsed.Milliseconds(),
	}, nil
}

// buildChunks accumulates sentences into chunks, seeding each new chunk with
// the previous chunk's trailing sentences for overlap.
func buildChunks(sentences []string, original string, targetWords, overlapWords, minWords int) []model.TextChunk {
	var chunks []model.TextChunk

	chunkIndex := 0
	var current []string
	currentWords := 0
	seedLen := 0 // Leading sentences of current that repeat the previous chunk.

	searchFrom := 0

	for _, sentence := range sentences {
		current = append(current, sentence)
		currentWords += len(strings.Fields(sentence))

		if currentWords < targetWords {
			continue
		}

		chunkText := strings.Join(current, " ")
		chunkStart, chunkEnd := locateChunk(original, current[0], chunkText, searchFrom)

		chunks = append(chunks, newChunk(chunkText, chunkIndex, chunkStart, chunkEnd, chunkIndex > 0, true))
		chunkIndex++
		searchFrom = chunkEnd

		current = overlapSentences(current, overlapWords)
		seedLen = len(current)
		currentWords = 0
		for _, s := range current {
			currentWords += len(strings.Fields(s))
		}
	}

	// Trailing remainder: a buffer shorter than half the lower tolerance bound
	// is folded into the previous chunk instead of becoming a degenerate
	// trailing chunk. A first-and-only buffer is always emitted as-is.
	if len(current) > 0 {
		if currentWords < minWords/2 && chunkIndex > 0 {
			fresh := current[seedLen:]
			if len(fresh) > 0 {
				prev := chunks[len(chunks)-1]
				merged := prev.Text + " " + strings.Join(fresh, " ")
				chunks[len(chunks)-1] = newChunk(merged, prev.ChunkIndex, prev.StartIndex, len(original), prev.OverlapStart, true)
			}
		} else {
			chunkText := strings.Join(current, " ")
			chunkStart, _ := locateChunk(original, current[0], chunkText, searchFrom)
			chunks = append(chunks, newChunk(chunkText, chunkIndex, chunkStart, len(original), chunkIndex > 0, false))
		}
	}

	// The last emitted chunk never overlaps forward.
	if n := len(chunks); n > 0 {
		chunks[n-1].OverlapEnd = false
	}

	return chunks
}

// overlapSentences returns the trailing sentences whose cumulative word count
// stays within target. The last sentence is always included, even alone over
// target, so overlap is never empty.
func overlapSentences(sentences []string, target int) []string {
	var overlap []string
	wordCount := 0

	for i := len(sentences) - 1; i >= 0; i-- {
		n := len(strings.Fields(sentences[i]))
		if wordCount+n > target && len(overlap) > 0 {
			break
		}
		overlap = append([]string{sentences[i]}, overlap...)
		wordCount += n
	}

	return overlap
}

// locateChunk finds the chunk's best-effort position in the original text by
// searching for its first ~50 characters from the previous chunk's end.
// A locate miss falls back to the previous end offset rather than failing.
func locateChunk(original, firstSentence, chunkText string, searchFrom int) (int, int) {
	prefix := firstSentence
	if len(prefix) > 50 {
		prefix = prefix[:50]
	}

	start := searchFrom
	if searchFrom <= len(original) {
		if idx := strings.Index(original[searchFrom:], prefix); idx >= 0 {
			start = searchFrom + idx
		}
	}

	return start, start + len(chunkText)
}

func newChunk(text string, index, start, end int, overlapStart, overlapEnd bool) model.TextChunk {
	hash := HashText(text)
	return model.TextChunk{
		ID:           fmt.Sprintf("chunk_%d_%s", index, hash[:8]),
		Text:         text,
		WordCount:    len(strings.Fields(text)),
		CharCount:    len(text),
		StartIndex:   start,
		EndIndex:     end,
		ChunkIndex:   index,
		OverlapStart: overlapStart,
		OverlapEnd:   overlapEnd,
		Hash:         hash,
	}
}

// HashText returns the deterministic content fingerprint of a chunk text:
// the first 16 hex characters of its SHA-256 digest.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}
