package text

import (
	"strings"
	"testing"
)

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	input := "ॐ गम् गणपतये नमः"
	chunks := Chunk(input, 20)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != input {
		t.Errorf("Expected chunk equal to input, got %q", chunks[0])
	}
}

func TestChunk_EmptyText(t *testing.T) {
	if chunks := Chunk("", 20); chunks != nil {
		t.Errorf("Expected nil for empty text, got %v", chunks)
	}
	if chunks := Chunk("   ", 20); chunks != nil {
		t.Errorf("Expected nil for whitespace text, got %v", chunks)
	}
}

func TestChunk_GreedyPacking(t *testing.T) {
	// Three sentences of 12, 18 and 15 words. 12+18 > 20, so none merge.
	s1 := strings.Repeat("w ", 11) + "w"
	s2 := strings.Repeat("x ", 17) + "x"
	s3 := strings.Repeat("y ", 14) + "y"
	input := s1 + "। " + s2 + ". " + s3 + "।"

	chunks := Chunk(input, 20)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	wantCounts := []int{12, 18, 15}
	for i, c := range chunks {
		if got := len(strings.Fields(c)); got != wantCounts[i] {
			t.Errorf("Chunk %d: expected %d words, got %d", i, wantCounts[i], got)
		}
	}
}

func TestChunk_MergesSmallSentences(t *testing.T) {
	// Sentences of 5 and 6 words pack into one chunk under a bound of 20,
	// once the 25-word total forces chunking at all.
	s1 := "one two three four five"
	s2 := "six seven eight nine ten eleven"
	s3 := strings.Repeat("z ", 13) + "z"
	input := s1 + ". " + s2 + ". " + s3 + "."

	chunks := Chunk(input, 20)
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if got := len(strings.Fields(chunks[0])); got != 11 {
		t.Errorf("Expected first chunk of 11 words, got %d", got)
	}
}

func TestChunk_OversizedSentenceKeptWhole(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("a ", 30))
	input := long + "। short one here।"

	chunks := Chunk(input, 20)
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if got := len(strings.Fields(chunks[0])); got != 30 {
		t.Errorf("Expected oversized sentence kept whole (30 words), got %d", got)
	}
}

func TestChunk_PreservesWordSequence(t *testing.T) {
	tests := []string{
		"धर्मो रक्षति रक्षितः। सत्यमेव जयते नानृतम्। विद्या ददाति विनयम्।",
		"Hello world. This is a second sentence. And a third one follows here.",
		strings.TrimSpace(strings.Repeat("word ", 45)),
	}

	for _, input := range tests {
		chunks := Chunk(input, 6)
		var joined []string
		for _, c := range chunks {
			if strings.TrimSpace(c) == "" {
				t.Errorf("Chunk(%q): produced empty chunk", input)
			}
			joined = append(joined, strings.Fields(c)...)
		}
		want := strings.Fields(sentenceTerminators.ReplaceAllString(input, " "))
		if len(joined) != len(want) {
			t.Fatalf("Chunk(%q): word count %d, want %d", input, len(joined), len(want))
		}
		for i := range want {
			if joined[i] != want[i] {
				t.Errorf("Chunk(%q): word %d = %q, want %q", input, i, joined[i], want[i])
			}
		}
	}
}

func TestChunk_OrderIsDeterministic(t *testing.T) {
	input := strings.TrimSpace(strings.Repeat("alpha beta gamma. ", 10))
	first := Chunk(input, 7)
	for i := 0; i < 5; i++ {
		again := Chunk(input, 7)
		if len(again) != len(first) {
			t.Fatalf("Chunk count changed between runs: %d vs %d", len(again), len(first))
		}
		for j := range first {
			if again[j] != first[j] {
				t.Errorf("Chunk %d changed between runs", j)
			}
		}
	}
}
