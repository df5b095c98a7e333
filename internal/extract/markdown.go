package extract

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractMarkdown strips markup by walking the goldmark AST, so chunk
// windows carry prose instead of formatting syntax. Fenced code blocks
// keep their raw content.
func extractMarkdown(data []byte) (string, error) {
	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)

	var parts []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if code, ok := node.(*ast.FencedCodeBlock); ok {
			var sb strings.Builder
			for i := 0; i < code.Lines().Len(); i++ {
				line := code.Lines().At(i)
				sb.Write(line.Value(data))
			}
			if s := strings.TrimSpace(sb.String()); s != "" {
				parts = append(parts, s)
			}
			continue
		}
		if txt := nodeText(node, data); txt != "" {
			parts = append(parts, txt)
		}
	}
	return strings.Join(parts, "\n"), nil
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			sb.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
