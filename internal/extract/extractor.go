// Package extract converts uploaded file bytes into plain text.
package extract

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Extract returns the text content of data, dispatching on the lowercase
// filename extension. A malformed file of a recognized format yields ""
// rather than an error: the caller applies its own minimum-text policy
// uniformly, and a broken PDF should not fail differently from an empty
// one. Unrecognized extensions are treated as plain text.
func Extract(ctx context.Context, filename string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(filename))
	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, err = extractDOCX(data)
	case ".md", ".markdown":
		text, err = extractMarkdown(data)
	default:
		// .txt and everything else
		text = extractPlain(data)
	}
	if err != nil {
		logutil.GetLogger(ctx).Error("text extraction failed",
			zap.String("filename", filename),
			zap.String("ext", ext),
			zap.Error(err),
		)
		return ""
	}
	return text
}
