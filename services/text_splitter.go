package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

// Chunk is a piece of extracted text and the character offset where it starts.
type Chunk struct {
	Text       string
	StartIndex int
}

// TextSplitter splits recursively on paragraph, line, word and character
// boundaries so that no chunk exceeds the configured size.
type TextSplitter struct {
	splitter textsplitter.RecursiveCharacter
	overlap  int
}

func NewTextSplitter(chunkSize, chunkOverlap int) *TextSplitter {
	return &TextSplitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		),
		overlap: chunkOverlap,
	}
}

// Split returns the chunks of text in order. StartIndex counts characters
// (runes), and is -1 when a chunk cannot be located in text.
func (s *TextSplitter) Split(text string) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	parts, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("splitting text: %w", err)
	}

	chunks := make([]Chunk, 0, len(parts))
	searchFrom := 0
	for _, part := range parts {
		if part == "" {
			continue
		}
		start := -1
		if idx := strings.Index(text[searchFrom:], part); idx >= 0 {
			byteStart := searchFrom + idx
			start = utf8.RuneCountInString(text[:byteStart])
			searchFrom = backUpRunes(text, byteStart+len(part), s.overlap)
		}
		chunks = append(chunks, Chunk{Text: part, StartIndex: start})
	}
	return chunks, nil
}

// backUpRunes moves a byte offset back by n runes, never before zero.
func backUpRunes(text string, offset, n int) int {
	for ; n > 0 && offset > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(text[:offset])
		offset -= size
	}
	return offset
}
