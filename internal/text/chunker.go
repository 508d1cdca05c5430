// Package text splits input text into bounded units the synthesis engine can
// process without quality loss. Indic Parler degrades on long inputs, so text
// is capped by word count and split on sentence boundaries.
package text

import (
	"regexp"
	"strings"
)

// sentenceTerminators matches runs of sentence-ending punctuation: the
// Sanskrit danda and the period.
var sentenceTerminators = regexp.MustCompile(`[।.]+`)

// Chunk splits text into ordered word-bounded chunks.
//
// Text whose total word count fits maxWords is returned as a single chunk
// unchanged. Otherwise the text is split into sentences and sentences are
// packed greedily: a chunk closes when adding the next sentence would push it
// past maxWords. A single sentence longer than maxWords is not split further;
// it becomes its own oversized chunk.
func Chunk(text string, maxWords int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= maxWords {
		return []string{text}
	}

	sentences := sentenceTerminators.Split(text, -1)

	var chunks []string
	var current strings.Builder
	currentWords := 0

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		sentenceWords := len(strings.Fields(sentence))

		if currentWords+sentenceWords > maxWords && current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			current.WriteString(sentence)
			currentWords = sentenceWords
		} else {
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(sentence)
			currentWords += sentenceWords
		}
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}
