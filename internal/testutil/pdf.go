// Package testutil builds fixtures shared by package tests.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"
)

// WritePDF writes a minimal PDF to path with one Helvetica text line per
// page. The Info dictionary carries title unless it is empty. Page text must
// not contain parentheses or backslashes.
func WritePDF(t testing.TB, path, title string, pages ...string) {
	t.Helper()
	if err := os.WriteFile(path, BuildPDF(title, pages...), 0o644); err != nil {
		t.Fatal(err)
	}
}

// BuildPDF returns the bytes WritePDF writes.
func BuildPDF(title string, pages ...string) []byte {
	// 1 catalog, 2 pages, 3 font, then a page and content pair per page,
	// then the optional info dictionary
	const fontObj = 3
	pageObj := func(i int) int { return 4 + 2*i }

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", pageObj(i))
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
				fontObj, pageObj(i)+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}
	infoObj := 0
	if title != "" {
		objects = append(objects, fmt.Sprintf("<< /Title (%s) >>", title))
		infoObj = len(objects)
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	// every entry is exactly 20 bytes
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}

	trailer := fmt.Sprintf("/Size %d /Root 1 0 R", len(objects)+1)
	if infoObj > 0 {
		trailer += fmt.Sprintf(" /Info %d 0 R", infoObj)
	}
	fmt.Fprintf(&b, "trailer\n<< %s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xref)
	return b.Bytes()
}
