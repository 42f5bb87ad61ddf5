package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	baseFont     = "Arial"
	baseSize     = 10.0
	lineHeight   = 5.0
	pageWidth    = 190.0 // A4 minus margins
	maxCellLines = 6
)

// Renderer converts analysis markdown into a PDF report
type Renderer struct {
	logger arbor.ILogger
	md     goldmark.Markdown
}

// NewRenderer creates a report renderer
func NewRenderer(logger arbor.ILogger) *Renderer {
	return &Renderer{
		logger: logger,
		md:     goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough)),
	}
}

// RenderResponse renders a pipeline response: the executive summary first, then the full analysis
func (r *Renderer) RenderResponse(resp *models.AnalysisResponse) ([]byte, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil analysis response")
	}

	var b strings.Builder
	if resp.FileProcessed != "" {
		fmt.Fprintf(&b, "# Financial Document Analysis: %s\n\n", resp.FileProcessed)
	}
	if strings.TrimSpace(resp.ExecutiveSummary) != "" {
		b.WriteString(resp.ExecutiveSummary)
		b.WriteString("\n\n---\n\n")
	}
	b.WriteString(resp.Analysis)

	return r.RenderMarkdown(b.String(), resp.FileProcessed)
}

// RenderMarkdown converts markdown to PDF bytes
func (r *Renderer) RenderMarkdown(markdown, title string) ([]byte, error) {
	r.logger.Debug().
		Int("markdown_len", len(markdown)).
		Str("title", title).
		Msg("Rendering report PDF")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	if title != "" {
		pdf.SetTitle(title, true)
	}
	pdf.SetCreator("finanalyzer", true)
	pdf.AddPage()
	pdf.SetFont(baseFont, "", baseSize)

	source := []byte(markdown)
	doc := r.md.Parser().Parse(text.NewReader(source))

	w := &pdfWriter{
		pdf:    pdf,
		source: source,
		size:   baseSize,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""), // cp1252 for core fonts
	}
	if err := ast.Walk(doc, w.walk); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write report PDF: %w", err)
	}

	r.logger.Debug().Int("pdf_size", buf.Len()).Msg("Report PDF rendered")
	return buf.Bytes(), nil
}

// pdfWriter walks a goldmark AST and draws it with fpdf
type pdfWriter struct {
	pdf       *fpdf.Fpdf
	source    []byte
	tr        func(string) string
	size      float64
	bold      bool
	italic    bool
	listDepth int
}

func (w *pdfWriter) setFont() {
	style := ""
	if w.bold {
		style += "B"
	}
	if w.italic {
		style += "I"
	}
	w.pdf.SetFont(baseFont, style, w.size)
}

func (w *pdfWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			w.pdf.Ln(4)
			w.size = headingSize(node.Level)
			w.bold = true
		} else {
			w.pdf.Ln(lineHeight + 2)
			w.size = baseSize
			w.bold = false
		}
		w.setFont()
	case *ast.Paragraph:
		if !entering && w.listDepth == 0 {
			w.pdf.Ln(lineHeight + 2)
		}
	case *ast.Text:
		if entering {
			w.pdf.Write(lineHeight, w.tr(string(node.Segment.Value(w.source))))
			if node.SoftLineBreak() {
				w.pdf.Write(lineHeight, " ")
			}
			if node.HardLineBreak() {
				w.pdf.Ln(lineHeight)
			}
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			w.bold = entering
		} else {
			w.italic = entering
		}
		w.setFont()
	case *ast.CodeSpan:
		if entering {
			w.pdf.SetFont("Courier", "", w.size)
			w.pdf.Write(lineHeight, w.tr(string(node.Text(w.source))))
			w.setFont()
		}
		return ast.WalkSkipChildren, nil
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			w.codeBlock(n.Lines())
		}
		return ast.WalkSkipChildren, nil
	case *ast.List:
		if entering {
			w.listDepth++
		} else {
			w.listDepth--
			if w.listDepth == 0 {
				w.pdf.Ln(lineHeight)
			}
		}
	case *ast.ListItem:
		if entering {
			if w.pdf.GetX() > 11 {
				w.pdf.Ln(lineHeight)
			}
			w.pdf.SetX(10 + float64(w.listDepth)*5)
			w.pdf.Write(lineHeight, bullet(node))
		}
	case *ast.ThematicBreak:
		if entering {
			w.pdf.Ln(2)
			y := w.pdf.GetY()
			w.pdf.Line(10, y, 10+pageWidth, y)
			w.pdf.Ln(4)
		}
	case *extast.Table:
		if entering {
			w.table(node)
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

func headingSize(level int) float64 {
	switch level {
	case 1:
		return 15
	case 2:
		return 13
	case 3:
		return 11
	default:
		return baseSize
	}
}

// bullet returns "1. " style markers for ordered lists and "- " otherwise
func bullet(item *ast.ListItem) string {
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return "- "
	}
	index := list.Start
	for sibling := item.PreviousSibling(); sibling != nil; sibling = sibling.PreviousSibling() {
		index++
	}
	return fmt.Sprintf("%d. ", index)
}

func (w *pdfWriter) codeBlock(lines *text.Segments) {
	w.pdf.Ln(2)
	w.pdf.SetFont("Courier", "", 9)
	w.pdf.SetFillColor(245, 245, 245)
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		line := strings.TrimRight(string(segment.Value(w.source)), "\n")
		w.pdf.MultiCell(0, lineHeight, w.tr(line), "", "L", true)
	}
	w.pdf.SetFillColor(255, 255, 255)
	w.setFont()
	w.pdf.Ln(2)
}

func (w *pdfWriter) table(node *extast.Table) {
	var rows [][]string
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch row := child.(type) {
		case *extast.TableHeader, *extast.TableRow:
			var cells []string
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, w.tr(strings.TrimSpace(string(cell.Text(w.source)))))
			}
			rows = append(rows, cells)
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	columns := len(rows[0])
	colWidth := pageWidth / float64(columns)
	tableLine := 4.0

	w.pdf.Ln(2)
	for i, row := range rows {
		style := ""
		if i == 0 {
			style = "B"
			w.pdf.SetFillColor(230, 230, 230)
		} else {
			w.pdf.SetFillColor(255, 255, 255)
		}
		w.pdf.SetFont(baseFont, style, 8)

		lines := 1
		for j := 0; j < columns && j < len(row); j++ {
			n := len(w.pdf.SplitText(row[j], colWidth-2))
			if n > lines {
				lines = n
			}
		}
		if lines > maxCellLines {
			lines = maxCellLines
		}
		height := float64(lines)*tableLine + 2

		_, pageHeight := w.pdf.GetPageSize()
		_, _, _, bottom := w.pdf.GetMargins()
		if w.pdf.GetY()+height > pageHeight-bottom {
			w.pdf.AddPage()
		}

		x, y := w.pdf.GetX(), w.pdf.GetY()
		for j := 0; j < columns; j++ {
			cellX := x + float64(j)*colWidth
			w.pdf.Rect(cellX, y, colWidth, height, "FD")
			if j >= len(row) {
				continue
			}
			wrapped := w.pdf.SplitText(row[j], colWidth-2)
			if len(wrapped) > lines {
				wrapped = wrapped[:lines]
			}
			for k, line := range wrapped {
				w.pdf.SetXY(cellX+1, y+1+float64(k)*tableLine)
				w.pdf.CellFormat(colWidth-2, tableLine, line, "", 0, "L", false, 0, "")
			}
		}
		w.pdf.SetXY(x, y+height)
	}
	w.pdf.Ln(3)
	w.setFont()
}
