package reporting

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/spboyer/agentra/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const htmlStyle = `body{font-family:-apple-system,Segoe UI,Helvetica,Arial,sans-serif;max-width:960px;margin:2rem auto;padding:0 1rem;color:#1f2328}
table{border-collapse:collapse;margin:1rem 0}th,td{border:1px solid #d0d7de;padding:4px 10px}th{background:#f6f8fa}`

// WriteHTML renders the markdown report to a standalone HTML page.
func WriteHTML(w io.Writer, result *models.EvaluationResult) error {
	var md bytes.Buffer
	if err := WriteMarkdown(&md, result); err != nil {
		return err
	}

	var body bytes.Buffer
	converter := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := converter.Convert(md.Bytes(), &body); err != nil {
		return fmt.Errorf("rendering HTML report: %w", err)
	}

	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Agentra Evaluation: %s</title>\n<style>%s</style>\n</head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(result.SystemName), htmlStyle, body.String())
	return err
}
