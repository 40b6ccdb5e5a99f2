package parser

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"icyco-rag/internal/config"
)

// NewSplitter returns the text splitter registered under name.
func NewSplitter(name string, chunkSize, chunkOverlap int) (textsplitter.TextSplitter, error) {
	switch name {
	case "", config.SplitterWindow:
		return NewWindowSplitter(chunkSize, chunkOverlap)
	case config.SplitterRecursive:
		return textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		), nil
	default:
		return nil, fmt.Errorf("unknown splitter: %q", name)
	}
}

// WindowSplitter cuts text into fixed-size rune windows. Consecutive windows
// share exactly Overlap runes and the last window ends at the end of the text.
type WindowSplitter struct {
	Size    int
	Overlap int
}

var _ textsplitter.TextSplitter = WindowSplitter{}

func NewWindowSplitter(size, overlap int) (WindowSplitter, error) {
	if size <= 0 {
		return WindowSplitter{}, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return WindowSplitter{}, fmt.Errorf("chunk overlap %d must be in [0, %d)", overlap, size)
	}
	return WindowSplitter{Size: size, Overlap: overlap}, nil
}

func (s WindowSplitter) SplitText(text string) ([]string, error) {
	if s.Size <= 0 || s.Overlap < 0 || s.Overlap >= s.Size {
		return nil, fmt.Errorf("invalid window %d/%d", s.Size, s.Overlap)
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}
	if len(runes) <= s.Size {
		return []string{text}, nil
	}

	step := s.Size - s.Overlap
	var chunks []string
	for start := 0; ; start += step {
		end := min(start+s.Size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}
