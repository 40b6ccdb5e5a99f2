package testutil

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"testing"
)

func TestBuildPDFCrossReference(t *testing.T) {
	data := BuildPDF("Icyco Menu", "Icyco offers vanilla.", "Open daily at ten.")

	tail := string(data[bytes.LastIndex(data, []byte("startxref")):])
	fields := strings.Fields(tail)
	if len(fields) < 3 || fields[2] != "%%EOF" {
		t.Fatalf("bad trailer %q", tail)
	}
	xref, err := strconv.Atoi(fields[1])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data[xref:], []byte("xref\n0 9\n")) {
		t.Fatalf("startxref %d does not point at the table", xref)
	}

	entries := data[xref+len("xref\n0 9\n"):]
	for n := 1; n < 9; n++ {
		entry := string(entries[n*20 : n*20+20])
		off, err := strconv.Atoi(entry[:10])
		if err != nil {
			t.Fatalf("entry %d = %q", n, entry)
		}
		if want := fmt.Sprintf("%d 0 obj\n", n); !bytes.HasPrefix(data[off:], []byte(want)) {
			t.Errorf("object %d not at offset %d", n, off)
		}
	}
	// catalog, pages, font, two page/content pairs, info
	if !bytes.Contains(data, []byte("/Info 8 0 R")) {
		t.Error("trailer does not reference the info dictionary")
	}
	if bytes.Contains(BuildPDF("", "x"), []byte("/Info")) {
		t.Error("untitled pdf has an info dictionary")
	}
}
