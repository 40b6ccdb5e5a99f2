package rag

import (
	"fmt"
	"io"

	"icyco-rag/internal/models"
)

// PrintResponse writes the answer followed by every source chunk.
func PrintResponse(w io.Writer, resp *models.Response) {
	fmt.Fprintln(w, "\n=== Answer ===")
	fmt.Fprintln(w, resp.Answer)

	fmt.Fprintln(w, "=== Source Documents ===")
	for _, src := range resp.Sources {
		fmt.Fprintf(w, "\n%s, Page no: %s:\n", src.Title, src.PageLabel)
		fmt.Fprintf(w, "Document content: %s...\n", src.Content)
	}
}
