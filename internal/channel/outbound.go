package channel

import (
	"strings"
)

// ChunkerMode selects the text chunking strategy.
type ChunkerMode string

const (
	ChunkerModeText      ChunkerMode = "text"
	ChunkerModeParagraph ChunkerMode = "paragraph"
)

const defaultTextChunkLimit = 2000

// Chunker splits text into pieces that respect a rune limit.
type Chunker func(text string, limit int) []string

// OutboundPolicy configures how outbound text is split before sending.
// Delivery is attempted once per chunk; there is no retry.
type OutboundPolicy struct {
	TextChunkLimit int         `json:"text_chunk_limit,omitempty"`
	ChunkerMode    ChunkerMode `json:"chunker_mode,omitempty"`
	Chunker        Chunker     `json:"-"`
}

// NormalizeOutboundPolicy fills zero-value fields with defaults.
func NormalizeOutboundPolicy(policy OutboundPolicy) OutboundPolicy {
	if policy.TextChunkLimit <= 0 {
		policy.TextChunkLimit = defaultTextChunkLimit
	}
	if policy.ChunkerMode == "" {
		policy.ChunkerMode = ChunkerModeText
	}
	if policy.Chunker == nil {
		policy.Chunker = DefaultChunker(policy.ChunkerMode)
	}
	return policy
}

// DefaultChunker returns the built-in Chunker for the given mode.
func DefaultChunker(mode ChunkerMode) Chunker {
	if mode == ChunkerModeParagraph {
		return ChunkParagraphs
	}
	return ChunkText
}

// ChunkText packs whole lines into chunks of at most limit runes. A single
// line longer than limit is hard-split.
func ChunkText(text string, limit int) []string {
	return packSegments(text, limit, "\n", func(line string) []string {
		return splitLongLine(line, limit)
	})
}

// ChunkParagraphs packs paragraphs (blank-line separated) the same way and
// falls back to ChunkText for an oversized paragraph.
func ChunkParagraphs(text string, limit int) []string {
	return packSegments(text, limit, "\n\n", func(para string) []string {
		return ChunkText(para, limit)
	})
}

func packSegments(text string, limit int, sep string, oversize func(string) []string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if limit <= 0 || runeLen(trimmed) <= limit {
		return []string{trimmed}
	}
	sepLen := runeLen(sep)
	var chunks []string
	var current strings.Builder
	currentLen := 0
	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}
	for _, seg := range strings.Split(trimmed, sep) {
		segLen := runeLen(seg)
		if currentLen > 0 && currentLen+sepLen+segLen <= limit {
			current.WriteString(sep)
			current.WriteString(seg)
			currentLen += sepLen + segLen
			continue
		}
		flush()
		if segLen > limit {
			chunks = append(chunks, oversize(seg)...)
			continue
		}
		current.WriteString(seg)
		currentLen = segLen
	}
	flush()
	return chunks
}

func runeLen(value string) int {
	return len([]rune(value))
}

func splitLongLine(line string, limit int) []string {
	if limit <= 0 {
		return []string{line}
	}
	runes := []rune(line)
	var chunks []string
	for start := 0; start < len(runes); start += limit {
		end := min(start+limit, len(runes))
		if segment := strings.TrimSpace(string(runes[start:end])); segment != "" {
			chunks = append(chunks, segment)
		}
	}
	return chunks
}
