package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/newsdailly/newsdailly/article"
	"github.com/newsdailly/newsdailly/market"
)

const (
	titleWidth   = 70
	taglineWidth = 150
	textWidth    = 80
)

// truncate shortens s to fit width terminal columns.
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}

// padRight pads s to width terminal columns.
func padRight(s string, width int) string {
	return runewidth.FillRight(truncate(s, width), width)
}

func publishedLabel(view article.ArticleView) string {
	if view.PublishedAt == nil {
		return "-"
	}
	return article.FormatPublished(*view.PublishedAt)
}

// printItemsTable prints items in human-readable table format
func printItemsTable(w io.Writer, items []article.ArticleView, offset int) {
	for i, item := range items {
		fmt.Fprintf(w, "%3d. %s\n", offset+i+1, truncate(item.Title, titleWidth))
		fmt.Fprintf(w, "     %s | %s | %s | %s\n",
			item.Category,
			item.Author,
			publishedLabel(item),
			item.ReadTime,
		)
		if item.Tagline != "" {
			fmt.Fprintf(w, "     %s\n", truncate(item.Tagline, taglineWidth))
		}
		fmt.Fprintf(w, "     /article/%s\n", item.Slug)
		fmt.Fprintln(w)
	}
}

// printItemsCompact prints one line per item
func printItemsCompact(w io.Writer, items []article.ArticleView) {
	for _, item := range items {
		fmt.Fprintf(w, "%s %s %s\n",
			padRight(item.Category, 16),
			padRight(publishedLabel(item), 18),
			truncate(item.Title, titleWidth),
		)
	}
}

// printJSON prints v as indented JSON
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// printArticle renders a full article for the terminal
func printArticle(w io.Writer, view article.ArticleView, hero string, suggestions []article.ArticleView) {
	rule := strings.Repeat("━", textWidth)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, wrapText(view.Title, textWidth))
	fmt.Fprintln(w, rule)
	if view.Tagline != "" {
		fmt.Fprintln(w, wrapText(view.Tagline, textWidth))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Author:      %s\n", view.Author)
	fmt.Fprintf(w, "Category:    %s\n", view.Category)
	fmt.Fprintf(w, "Published:   %s\n", publishedLabel(view))
	fmt.Fprintf(w, "Read time:   %s\n", view.ReadTime)
	if len(view.Tags) > 0 {
		tags := make([]string, len(view.Tags))
		for i, t := range view.Tags {
			tags[i] = "#" + t
		}
		fmt.Fprintf(w, "Tags:        %s\n", strings.Join(tags, " "))
	}
	if hero != "" {
		fmt.Fprintf(w, "Image:       %s\n", hero)
	}
	fmt.Fprintln(w)

	if view.Intro != "" {
		printSection(w, "Introduction", view.Intro)
	}
	for _, s := range view.Sections {
		printSection(w, s.Title, s.Text)
	}
	if view.Conclusion != "" {
		printSection(w, "Conclusion", view.Conclusion)
	}

	if len(view.FAQ) > 0 {
		fmt.Fprintln(w, "Frequently Asked Questions")
		fmt.Fprintln(w)
		for i, f := range view.FAQ {
			q := f.Question
			if q == "" {
				q = fmt.Sprintf("Question %d", i+1)
			}
			fmt.Fprintf(w, "Q: %s\n", q)
			if f.Answer != "" {
				fmt.Fprintln(w, wrapText("A: "+f.Answer, textWidth))
			}
			fmt.Fprintln(w)
		}
	}

	if len(suggestions) > 0 {
		fmt.Fprintln(w, "Latest")
		for _, s := range suggestions {
			fmt.Fprintf(w, "  • %s (/article/%s)\n", truncate(s.Title, titleWidth), s.Slug)
		}
	}
}

func printSection(w io.Writer, title, body string) {
	if title != "" {
		fmt.Fprintln(w, title)
		fmt.Fprintln(w, strings.Repeat("─", runewidth.StringWidth(title)))
	}
	text, err := article.PlainText(body)
	if err != nil {
		text = body
	}
	for _, para := range strings.Split(text, "\n\n") {
		fmt.Fprintln(w, wrapText(para, textWidth))
		fmt.Fprintln(w)
	}
}

// printBoard prints the market strip as a table
func printBoard(w io.Writer, board market.Board) {
	fmt.Fprintf(w, "%s %s %s %s %s  %s\n",
		padRight("PAIR", 6), padRight("PRICE", 14), padRight("24H", 9),
		padRight("LOW", 14), padRight("HIGH", 14), "RANGE")
	for _, c := range board.Chips {
		fmt.Fprintf(w, "%s %s %s %s %s  %s\n",
			padRight(c.Symbol, 6),
			padRight(c.PriceText, 14),
			padRight(c.ChangeText, 9),
			padRight(c.LowText, 14),
			padRight(c.HighText, 14),
			rangeBar(c.RangePct, 20),
		)
	}
	switch {
	case board.Error != "":
		fmt.Fprintf(w, "\n(stale: %s)\n", board.Error)
	case !board.Live:
		fmt.Fprintln(w, "\n(placeholder prices)")
	default:
		fmt.Fprintf(w, "\nUpdated %s\n", board.UpdatedAt)
	}
}

// rangeBar draws pct of width cells filled
func rangeBar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	filled = min(max(filled, 0), width)
	return "[" + strings.Repeat("█", filled) + strings.Repeat("·", width-filled) + "]"
}

// wrapText wraps text to a maximum line width
func wrapText(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var lines []string
	var currentLine strings.Builder
	currentWidth := 0

	for _, word := range words {
		wordWidth := runewidth.StringWidth(word)
		if currentLine.Len() == 0 {
			currentLine.WriteString(word)
			currentWidth = wordWidth
		} else if currentWidth+1+wordWidth <= width {
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
			currentWidth += 1 + wordWidth
		} else {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
			currentWidth = wordWidth
		}
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return strings.Join(lines, "\n")
}
