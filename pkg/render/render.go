// Package render produces readable markdown full text from raw
// legislative XML via a fixed XSLT stylesheet: XML → HTML → markdown,
// followed by whitespace normalization and optional link stripping.
package render

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	md "github.com/JohannesKaufmann/html-to-markdown"
	xslt "github.com/wamuir/go-xslt"
	"golang.org/x/net/html"
)

// Renderer converts legislative XML documents to markdown. The
// stylesheet is parsed once and the renderer shared across workers.
type Renderer struct {
	// libxslt transform contexts are not safe for concurrent use, so a
	// shared renderer serializes transforms.
	mu         sync.Mutex
	stylesheet *xslt.Stylesheet
	converter  *md.Converter
	stripLinks bool
}

// NewRenderer builds a renderer from stylesheet bytes. When stripLinks
// is set, markdown links in the output are replaced by their text.
func NewRenderer(stylesheet []byte, stripLinks bool) (*Renderer, error) {
	parsed, err := xslt.NewStylesheet(stylesheet)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stylesheet: %w", err)
	}

	return &Renderer{
		stylesheet: parsed,
		converter:  md.NewConverter("", true, nil),
		stripLinks: stripLinks,
	}, nil
}

// NewRendererFromFile builds a renderer from a stylesheet file path.
func NewRendererFromFile(path string, stripLinks bool) (*Renderer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stylesheet %s: %w", path, err)
	}
	return NewRenderer(data, stripLinks)
}

// Close releases the parsed stylesheet.
func (renderer *Renderer) Close() {
	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	if renderer.stylesheet != nil {
		renderer.stylesheet.Close()
		renderer.stylesheet = nil
	}
}

// Render transforms one XML document to markdown. The output is
// deterministic for identical XML, stylesheet, and options.
func (renderer *Renderer) Render(xmlData []byte) (string, error) {
	renderer.mu.Lock()
	defer renderer.mu.Unlock()

	if renderer.stylesheet == nil {
		return "", fmt.Errorf("renderer is closed")
	}

	htmlData, err := renderer.stylesheet.Transform(xmlData)
	if err != nil {
		return "", fmt.Errorf("failed to apply stylesheet: %w", err)
	}

	// The stylesheet emits inline spans back to back; without a
	// separating space adjacent words concatenate in the markdown.
	htmlData = spaceAfterSpans(htmlData)

	markdown, err := renderer.converter.ConvertString(string(htmlData))
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	markdown = NormalizeWhitespace(markdown)
	if renderer.stripLinks {
		markdown = StripLinks(markdown)
	}

	return markdown, nil
}

// spaceAfterSpans inserts a single space after every closing span tag.
func spaceAfterSpans(htmlData []byte) []byte {
	tokenizer := html.NewTokenizer(bytes.NewReader(htmlData))
	var out bytes.Buffer

	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			break
		}

		out.Write(tokenizer.Raw())

		if tokenType == html.EndTagToken {
			name, _ := tokenizer.TagName()
			if string(name) == "span" {
				out.WriteByte(' ')
			}
		}
	}

	return out.Bytes()
}
