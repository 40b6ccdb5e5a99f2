package models

// Metadata keys attached to every chunk.
const (
	MetaTitle     = "title"
	MetaPageLabel = "page_label"
	MetaSource    = "source"
	MetaChunkID   = "chunk_id"
)

// Page is the extracted text of one page (or sheet, slide) of a resource file.
type Page struct {
	Content   string
	Title     string
	PageLabel string
	Source    string
}

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	Content   string  `json:"content"`
	Title     string  `json:"title"`
	PageLabel string  `json:"page_label"`
	Source    string  `json:"source"`
	ChunkID   int     `json:"chunk_id"`
	Score     float32 `json:"score,omitempty"`
}

// Metadata returns the chunk metadata in the shape vector stores persist.
func (c Chunk) Metadata() map[string]any {
	return map[string]any{
		MetaTitle:     c.Title,
		MetaPageLabel: c.PageLabel,
		MetaSource:    c.Source,
		MetaChunkID:   c.ChunkID,
	}
}

type Response struct {
	Query   string  `json:"query"`
	Answer  string  `json:"answer"`
	Sources []Chunk `json:"sources"`
}
