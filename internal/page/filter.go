// Package page analyzes fetched HTML documents: keyword filtering,
// structured content extraction, and next-page discovery. All heuristics
// operate on goquery selections.
package page

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// cardClassPatterns identifies repeating "card" regions (product tiles,
// list entries) by class name.
var cardClassPatterns = []string{
	"card", "product", "item", "listing", "article", "post",
	"result", "entry", "tile", "box", "grid-item", "list-item",
}

// contextWindow is the approximate size of the excerpt captured around a
// keyword hit in body text.
const contextWindow = 100

// MatchResult reports the outcome of keyword filtering for one page.
type MatchResult struct {
	Matched  bool
	Keywords []string          // keywords that hit, in input order
	Contexts map[string]string // keyword -> excerpt around the first hit
}

// MatchKeywords decides whether a page should be retained. Every surface
// is scanned so Matched reflects a hit anywhere; the context recorded per
// keyword comes from the highest-priority surface that contains it.
// An empty keyword list retains everything.
func MatchKeywords(htmlContent string, keywords []string, includeMeta bool) (MatchResult, error) {
	if len(keywords) == 0 {
		return MatchResult{Matched: true}, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return MatchResult{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	bodyText := visibleText(doc)
	cards := cardTexts(doc)
	alts := imageAlts(doc)

	var metas []labeledText
	if includeMeta {
		metas = metaTexts(doc)
	}

	result := MatchResult{Contexts: make(map[string]string)}
	for _, keyword := range keywords {
		context, hit := keywordContext(keyword, bodyText, cards, alts, metas)
		if !hit {
			continue
		}
		result.Matched = true
		result.Keywords = append(result.Keywords, keyword)
		result.Contexts[keyword] = context
	}

	if !result.Matched {
		result.Contexts = nil
	}
	return result, nil
}

type labeledText struct {
	label string
	text  string
}

// keywordContext scans the surfaces in priority order and returns the
// context from the first surface containing the keyword.
func keywordContext(keyword, bodyText string, cards, alts, metas []labeledText) (string, bool) {
	if idx := indexFold(bodyText, keyword); idx >= 0 {
		return excerptAround(bodyText, idx, len(keyword)), true
	}

	for _, surfaces := range [][]labeledText{cards, alts, metas} {
		for _, s := range surfaces {
			if indexFold(s.text, keyword) >= 0 {
				return s.label + ": " + truncate(s.text, contextWindow), true
			}
		}
	}

	return "", false
}

// visibleText approximates the rendered text of the page body.
func visibleText(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()
	return collapseWhitespace(body.Text())
}

func cardTexts(doc *goquery.Document) []labeledText {
	var out []labeledText
	for _, pattern := range cardClassPatterns {
		doc.Find(fmt.Sprintf("[class*=%q]", pattern)).Each(func(_ int, s *goquery.Selection) {
			text := collapseWhitespace(s.Text())
			if text == "" {
				return
			}
			out = append(out, labeledText{label: "Card", text: text})
		})
	}
	return out
}

func imageAlts(doc *goquery.Document) []labeledText {
	var out []labeledText
	doc.Find("img[alt]").Each(func(_ int, s *goquery.Selection) {
		alt := strings.TrimSpace(s.AttrOr("alt", ""))
		if alt != "" {
			out = append(out, labeledText{label: "Image alt", text: alt})
		}
	})
	return out
}

func metaTexts(doc *goquery.Document) []labeledText {
	var out []labeledText

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		out = append(out, labeledText{label: "Title", text: title})
	}

	doc.Find("meta[name=description], meta[name=keywords]").Each(func(_ int, s *goquery.Selection) {
		if content := strings.TrimSpace(s.AttrOr("content", "")); content != "" {
			out = append(out, labeledText{label: "Meta " + s.AttrOr("name", ""), text: content})
		}
	})

	doc.Find("meta[property^='og:'], meta[name^='twitter:']").Each(func(_ int, s *goquery.Selection) {
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content == "" {
			return
		}
		label := s.AttrOr("property", s.AttrOr("name", "meta"))
		out = append(out, labeledText{label: "Meta " + label, text: content})
	})

	return out
}

// indexFold returns the byte index of the first case-insensitive
// occurrence of needle in haystack, or -1.
func indexFold(haystack, needle string) int {
	return strings.Index(strings.ToLower(haystack), strings.ToLower(needle))
}

// excerptAround returns a window of roughly contextWindow characters
// centered on the match at byte offset idx.
func excerptAround(text string, idx, matchLen int) string {
	start := idx - (contextWindow-matchLen)/2
	if start < 0 {
		start = 0
	}
	end := start + contextWindow
	if end > len(text) {
		end = len(text)
	}
	// Snap to rune boundaries
	for start > 0 && !isRuneStart(text[start]) {
		start--
	}
	for end < len(text) && !isRuneStart(text[end]) {
		end++
	}

	excerpt := strings.TrimSpace(text[start:end])
	if start > 0 {
		excerpt = "…" + excerpt
	}
	if end < len(text) {
		excerpt += "…"
	}
	return excerpt
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	end := max
	for end > 0 && !isRuneStart(s[end]) {
		end--
	}
	return s[:end] + "…"
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
