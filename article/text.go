package article

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockSelector lists elements that start a new paragraph in plain text.
const blockSelector = "p, h1, h2, h3, h4, h5, h6, li, blockquote, pre"

// PlainText strips markup from stored section HTML, keeping one paragraph per
// block element. Text with no block elements is returned with its whitespace
// collapsed.
func PlainText(html string) (string, error) {
	if !strings.Contains(html, "<") {
		return collapseSpace(html), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style").Remove()

	var paragraphs []string
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks are emitted by their innermost element only.
		if s.Find(blockSelector).Length() > 0 {
			return
		}
		text := collapseSpace(s.Text())
		if text == "" {
			return
		}
		if goquery.NodeName(s) == "li" {
			text = "- " + text
		}
		paragraphs = append(paragraphs, text)
	})

	if len(paragraphs) == 0 {
		return collapseSpace(doc.Text()), nil
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
