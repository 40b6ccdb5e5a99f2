package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"

	"icyco-rag/internal/config"
	"icyco-rag/internal/models"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

const (
	defaultChunkSize    = 400
	defaultChunkOverlap = 50
)

// Loader reads resource files from Dir and turns them into chunks.
type Loader struct {
	Dir      string
	Splitter textsplitter.TextSplitter
}

// NewLoader builds a Loader from the rag section of the config. A nil config
// falls back to 400/50 windows over ./resources.
func NewLoader(cfg *config.Config) (*Loader, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	size, overlap := cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap
	if size == 0 {
		size, overlap = defaultChunkSize, defaultChunkOverlap
	}
	splitter, err := NewSplitter(cfg.RAG.Splitter, size, overlap)
	if err != nil {
		return nil, err
	}
	return &Loader{Dir: cfg.ResourcesDir, Splitter: splitter}, nil
}

// Chunks loads every page of filename, normalizes whitespace and splits the
// text, keeping the page metadata on each chunk.
func (l *Loader) Chunks(filename string) ([]models.Chunk, error) {
	pages, err := l.Pages(filename)
	if err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	for _, page := range pages {
		text := CleanText(page.Content)
		if text == "" {
			continue
		}
		parts, err := l.Splitter.SplitText(text)
		if err != nil {
			return nil, fmt.Errorf("failed to split %s page %s: %w", filename, page.PageLabel, err)
		}
		for i, part := range parts {
			chunks = append(chunks, models.Chunk{
				Content:   part,
				Title:     page.Title,
				PageLabel: page.PageLabel,
				Source:    page.Source,
				ChunkID:   i + 1,
			})
		}
	}
	log.Debug().Str("file", filename).Int("pages", len(pages)).Int("chunks", len(chunks)).Msg("Chunked document")
	return chunks, nil
}

// Pages extracts the raw page texts of filename, relative to the loader dir.
func (l *Loader) Pages(filename string) ([]models.Page, error) {
	path := filename
	if l.Dir != "" && !filepath.IsAbs(filename) {
		path = filepath.Join(l.Dir, filename)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return parsePDF(path)
	case ".docx":
		return parseDOCX(path)
	case ".pptx":
		return parsePPTX(path)
	case ".xlsx":
		return parseXLSX(path)
	case ".xlsm", ".xltx":
		return parseWorkbook(path)
	case ".md", ".markdown":
		return parseMarkdown(path)
	case ".txt":
		return parseText(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parsePDF(path string) ([]models.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf %s: %w", path, err)
	}

	title := pdfTitle(reader)
	if title == "" {
		title = baseName(path)
	}

	var pages []models.Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract page %d of %s: %w", i, path, err)
		}
		pages = append(pages, models.Page{
			Content:   text,
			Title:     title,
			PageLabel: strconv.Itoa(i),
			Source:    filepath.Base(path),
		})
	}
	return pages, nil
}

func pdfTitle(reader *pdf.Reader) string {
	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return ""
	}
	return strings.TrimSpace(info.Key("Title").Text())
}

func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
