package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// ErrNoJSONBlock is the schema error recorded when the final answer carries no fenced json block
var ErrNoJSONBlock = errors.New("no fenced json block in answer")

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

var validate = validator.New()

// parsedAnswer is a final answer split into its parts
type parsedAnswer struct {
	Narrative string
	Sections  map[string]string
	JSON      []byte // Contents of the last ```json block; nil when absent
}

type span struct{ start, stop int }

type headingMark struct {
	title     string
	lineStart int
	bodyStart int
}

// parseAnswer walks the markdown AST, collecting heading sections and the fenced json block.
// The json block is removed from the narrative.
func parseAnswer(answer string) parsedAnswer {
	source := []byte(answer)
	doc := markdown.Parser().Parse(text.NewReader(source))

	var headings []headingMark
	var jsonBlock []byte
	var jsonSpan *span

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			lines := node.Lines()
			if lines.Len() == 0 {
				return ast.WalkSkipChildren, nil
			}
			first := lines.At(0)
			last := lines.At(lines.Len() - 1)
			headings = append(headings, headingMark{
				title:     strings.TrimSpace(string(node.Text(source))),
				lineStart: lineStart(source, first.Start),
				bodyStart: lineEnd(source, last.Stop),
			})
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			if !strings.EqualFold(string(node.Language(source)), "json") {
				return ast.WalkSkipChildren, nil
			}
			var buf bytes.Buffer
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(source))
			}
			jsonBlock = buf.Bytes()
			jsonSpan = fencedSpan(source, node)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	narrativeSource := source
	if jsonSpan != nil {
		narrativeSource = append(append([]byte{}, source[:jsonSpan.start]...), source[jsonSpan.stop:]...)
	}

	sections := make(map[string]string, len(headings))
	for i, h := range headings {
		end := len(source)
		if i+1 < len(headings) {
			end = headings[i+1].lineStart
		}
		body := source[h.bodyStart:end]
		if jsonSpan != nil && jsonSpan.start >= h.bodyStart && jsonSpan.stop <= end {
			body = append(append([]byte{}, source[h.bodyStart:jsonSpan.start]...), source[jsonSpan.stop:end]...)
		}
		if _, exists := sections[h.title]; !exists {
			sections[h.title] = strings.TrimSpace(string(body))
		}
	}

	return parsedAnswer{
		Narrative: strings.TrimSpace(string(narrativeSource)),
		Sections:  sections,
		JSON:      jsonBlock,
	}
}

// fencedSpan returns the byte range of a fenced block including both fence lines
func fencedSpan(source []byte, node *ast.FencedCodeBlock) *span {
	lines := node.Lines()
	var start, closing int
	switch {
	case lines.Len() > 0:
		start = lineStart(source, lineStart(source, lines.At(0).Start)-1)
		closing = lineEnd(source, lines.At(lines.Len()-1).Stop)
	case node.Info != nil:
		start = lineStart(source, node.Info.Segment.Start)
		closing = lineEnd(source, node.Info.Segment.Stop)
	default:
		return nil
	}
	// closing is the first byte of the closing fence line, or EOF for an unterminated block
	stop := closing
	if stop < len(source) {
		stop = lineEnd(source, stop+1)
	}
	return &span{start: start, stop: stop}
}

// lineStart returns the offset of the first byte of the line containing pos
func lineStart(source []byte, pos int) int {
	if pos > len(source) {
		pos = len(source)
	}
	if pos < 0 {
		return 0
	}
	for pos > 0 && source[pos-1] != '\n' {
		pos--
	}
	return pos
}

// lineEnd returns the offset just past the newline ending the line containing pos
func lineEnd(source []byte, pos int) int {
	if pos > 0 && pos <= len(source) && source[pos-1] == '\n' {
		return pos
	}
	for pos < len(source) && source[pos] != '\n' {
		pos++
	}
	if pos < len(source) {
		pos++
	}
	return pos
}

// decodePayload decodes the json block into the stage payload and validates it
func decodePayload(spec StageSpec, block []byte) (interface{}, error) {
	if spec.NewPayload == nil {
		return nil, nil
	}
	if len(bytes.TrimSpace(block)) == 0 {
		return nil, ErrNoJSONBlock
	}

	payload := spec.NewPayload()
	if err := json.Unmarshal(block, payload); err != nil {
		return nil, fmt.Errorf("failed to decode json block: %w", err)
	}
	if err := validate.Struct(payload); err != nil {
		return nil, err
	}
	return payload, nil
}
