package channel

import (
	"strings"
	"testing"
)

func TestChunkTextShortPassesThrough(t *testing.T) {
	t.Parallel()
	got := ChunkText("  hello  ", 10)
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("ChunkText = %q", got)
	}
	if ChunkText("   ", 10) != nil {
		t.Fatal("blank text should produce no chunks")
	}
}

func TestChunkTextPacksLines(t *testing.T) {
	t.Parallel()
	got := ChunkText("aaa\nbbb\nccc", 7)
	want := []string{"aaa\nbbb", "ccc"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("ChunkText = %q, want %q", got, want)
	}
}

func TestChunkTextSplitsLongLineByRunes(t *testing.T) {
	t.Parallel()
	line := strings.Repeat("é", 25)
	got := ChunkText(line, 10)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	for _, c := range got {
		if runeLen(c) > 10 {
			t.Fatalf("chunk over limit: %d runes", runeLen(c))
		}
	}
	if strings.Join(got, "") != line {
		t.Fatal("chunks do not reassemble the line")
	}
}

func TestChunkParagraphs(t *testing.T) {
	t.Parallel()
	text := "first para\n\nsecond para\n\n" + strings.Repeat("x", 30)
	got := ChunkParagraphs(text, 24)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %q", got)
	}
	if got[0] != "first para\n\nsecond para" {
		t.Fatalf("unexpected first chunk %q", got[0])
	}
}

func TestNormalizeOutboundPolicyDefaults(t *testing.T) {
	t.Parallel()
	p := NormalizeOutboundPolicy(OutboundPolicy{})
	if p.TextChunkLimit != defaultTextChunkLimit || p.ChunkerMode != ChunkerModeText || p.Chunker == nil {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}
