// Package report renders an extraction run as a self-contained HTML
// page: a corpus summary table plus, when present, each document's full
// text rendered from markdown.
package report

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/coolbeans/lexcan/pkg/statute"
)

// Write emits the HTML report for the given documents.
func Write(writer io.Writer, documents []*statute.Document) error {
	var htmlBuilder strings.Builder

	htmlBuilder.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	htmlBuilder.WriteString("<meta charset=\"UTF-8\">\n")
	htmlBuilder.WriteString("<title>Corpus Extraction Report</title>\n")
	htmlBuilder.WriteString(reportStyles())
	htmlBuilder.WriteString("</head>\n<body>\n")
	htmlBuilder.WriteString("<h1>Corpus Extraction Report</h1>\n")
	htmlBuilder.WriteString(fmt.Sprintf("<p>%d documents</p>\n", len(documents)))

	htmlBuilder.WriteString("<table>\n<tr><th>ID</th><th>Lang</th><th>Type</th><th>Title</th><th>Sections</th><th>Internal refs</th><th>External refs</th></tr>\n")
	for _, document := range documents {
		htmlBuilder.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%d</td><td>%d</td><td>%d</td></tr>\n",
			html.EscapeString(document.ID),
			html.EscapeString(document.Lang),
			html.EscapeString(string(document.Type)),
			html.EscapeString(documentTitle(document)),
			len(document.Sections),
			len(document.InternalRefs),
			len(document.ExternalRefs)))
	}
	htmlBuilder.WriteString("</table>\n")

	markdownRenderer := goldmark.New()
	for _, document := range documents {
		if document.FullText == "" {
			continue
		}

		htmlBuilder.WriteString(fmt.Sprintf("<h2 id=\"%s\">%s</h2>\n",
			html.EscapeString(document.ID), html.EscapeString(document.ID)))
		htmlBuilder.WriteString("<div class=\"fulltext\">\n")

		var rendered strings.Builder
		if err := markdownRenderer.Convert([]byte(document.FullText), &rendered); err != nil {
			return fmt.Errorf("failed to render full text of %s: %w", document.ID, err)
		}
		htmlBuilder.WriteString(rendered.String())

		htmlBuilder.WriteString("</div>\n")
	}

	htmlBuilder.WriteString("</body>\n</html>\n")

	if _, err := io.WriteString(writer, htmlBuilder.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// documentTitle falls back to the document ID for documents with no
// title elements, matching how graph nodes are labelled.
func documentTitle(document *statute.Document) string {
	if document.ShortTitle != nil {
		return *document.ShortTitle
	}
	if document.LongTitle != nil {
		return *document.LongTitle
	}
	return document.ID
}

// reportStyles returns the inline CSS for the report page.
func reportStyles() string {
	return `<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 2em; color: #222; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
th { background: #f0f0f0; }
.fulltext { border-left: 3px solid #ccc; padding-left: 1em; margin-bottom: 2em; }
</style>
`
}
