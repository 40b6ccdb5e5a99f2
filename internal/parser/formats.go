package parser

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"icyco-rag/internal/models"
)

// single page for formats without pagination
const defaultPageLabel = "1"

func singlePage(path, content string) []models.Page {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	return []models.Page{{
		Content:   content,
		Title:     baseName(path),
		PageLabel: defaultPageLabel,
		Source:    filepath.Base(path),
	}}
}

func parseText(path string) ([]models.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return singlePage(path, string(data)), nil
}

func parseDOCX(path string) ([]models.Page, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read docx %s: %w", path, err)
	}
	defer r.Close()

	content := extractTextFromXML(r.Editable().GetContent(), "<w:t>", "<w:t ", "</w:t>")
	return singlePage(path, content), nil
}

// slides are numbered by their file name inside the archive
func parsePPTX(path string) ([]models.Page, error) {
	f, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pptx %s: %w", path, err)
	}
	defer f.Close()

	type slide struct {
		num  int
		text string
	}
	var slides []slide
	for _, file := range f.File {
		name := file.Name
		if !strings.HasPrefix(name, "ppt/slides/slide") || !strings.HasSuffix(name, ".xml") {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml"))
		if err != nil {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		slides = append(slides, slide{num: num, text: extractTextFromXML(string(data), "<a:t>", "", "</a:t>")})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var pages []models.Page
	for _, s := range slides {
		if strings.TrimSpace(s.text) == "" {
			continue
		}
		pages = append(pages, models.Page{
			Content:   s.text,
			Title:     baseName(path),
			PageLabel: strconv.Itoa(s.num),
			Source:    filepath.Base(path),
		})
	}
	return pages, nil
}

func parseXLSX(path string) ([]models.Page, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx %s: %w", path, err)
	}

	var pages []models.Page
	for i, sheet := range f.Sheets {
		var b strings.Builder
		b.WriteString(sheet.Name + "\n")
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				b.WriteString(cell.String() + "\t")
			}
			b.WriteString("\n")
		}
		pages = append(pages, sheetPage(path, i, b.String())...)
	}
	return pages, nil
}

func parseWorkbook(path string) ([]models.Page, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	var pages []models.Page
	for i, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
		}
		var b strings.Builder
		b.WriteString(sheetName + "\n")
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteString("\n")
		}
		pages = append(pages, sheetPage(path, i, b.String())...)
	}
	return pages, nil
}

func sheetPage(path string, index int, content string) []models.Page {
	pages := singlePage(path, content)
	for i := range pages {
		pages[i].PageLabel = strconv.Itoa(index + 1)
	}
	return pages
}

func parseMarkdown(path string) ([]models.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content, err := markdownText(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markdown %s: %w", path, err)
	}
	return singlePage(path, content), nil
}

// markdownText drops markdown syntax and keeps the readable text, one line
// per block.
func markdownText(src []byte) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				b.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteString(" ")
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(src))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// extractTextFromXML collects the text of every open...close element. The
// optional openAttr prefix matches the same element carrying attributes.
func extractTextFromXML(xmlContent, open, openAttr, close string) string {
	var b strings.Builder
	rest := xmlContent
	for {
		start := strings.Index(rest, open)
		tagLen := len(open)
		if openAttr != "" {
			if i := strings.Index(rest, openAttr); i >= 0 && (start < 0 || i < start) {
				end := strings.Index(rest[i:], ">")
				if end < 0 {
					break
				}
				start, tagLen = i, end+1
			}
		}
		if start < 0 {
			break
		}
		rest = rest[start+tagLen:]
		end := strings.Index(rest, close)
		if end < 0 {
			break
		}
		b.WriteString(rest[:end] + " ")
		rest = rest[end+len(close):]
	}
	return b.String()
}
