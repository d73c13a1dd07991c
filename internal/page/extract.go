package page

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Block is one typed chunk of page text in document order.
type Block struct {
	Type  string `json:"type"` // paragraph|heading|list
	Level int    `json:"level,omitempty"`
	Text  string `json:"text"`
}

// Heading is a heading element with its level.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Link is an anchor with its resolved target.
type Link struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Image is an image with its resolved source.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// Record is the structured content pulled from a page or a card element.
type Record struct {
	Title      string            `json:"title,omitempty"`
	Blocks     []Block           `json:"blocks,omitempty"`
	Headings   []Heading         `json:"headings,omitempty"`
	Links      []Link            `json:"links,omitempty"`
	Images     []Image           `json:"images,omitempty"`
	Prices     []string          `json:"prices,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Fixed currency patterns: symbol-prefixed amounts and ISO-code forms.
var priceRegexps = []*regexp.Regexp{
	regexp.MustCompile(`[$€£]\s?\d[\d,]*(?:\.\d{1,2})?`),
	regexp.MustCompile(`\b(?:USD|EUR|GBP)\s?\d[\d,]*(?:\.\d{1,2})?`),
	regexp.MustCompile(`\d[\d,]*(?:\.\d{1,2})?\s?(?:USD|EUR|GBP)\b`),
}

var headingLevels = map[string]int{
	"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6,
}

// ExtractPage builds a Record from a full page. Sub-element failures
// (unresolvable URLs, malformed rows) degrade to omissions; the rest of
// the record is still returned.
func ExtractPage(htmlContent, pageURL string) (*Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	record := extractFrom(doc.Selection, base)
	if record.Title == "" {
		record.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	return record, nil
}

// ExtractCard builds a Record from a single card element's HTML. The
// record has the same shape as a page record, scoped to the card.
func ExtractCard(cardHTML, pageURL string) (*Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cardHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse card HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	return extractFrom(doc.Selection, base), nil
}

func extractFrom(root *goquery.Selection, base *url.URL) *Record {
	record := &Record{}

	root.Find("p, h1, h2, h3, h4, h5, h6, li").Each(func(_ int, s *goquery.Selection) {
		text := collapseWhitespace(s.Text())
		if text == "" {
			return
		}

		tag := goquery.NodeName(s)
		if level, ok := headingLevels[tag]; ok {
			record.Blocks = append(record.Blocks, Block{Type: "heading", Level: level, Text: text})
			record.Headings = append(record.Headings, Heading{Level: level, Text: text})
			return
		}
		if tag == "li" {
			record.Blocks = append(record.Blocks, Block{Type: "list", Text: text})
			return
		}
		record.Blocks = append(record.Blocks, Block{Type: "paragraph", Text: text})
	})

	if len(record.Headings) > 0 {
		record.Title = record.Headings[0].Text
	}

	root.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if !crawlableRef(href) {
			return
		}
		resolved, ok := resolveRef(base, href)
		if !ok {
			return
		}
		record.Links = append(record.Links, Link{URL: resolved, Text: collapseWhitespace(s.Text())})
	})

	root.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		resolved, ok := resolveRef(base, strings.TrimSpace(s.AttrOr("src", "")))
		if !ok {
			return
		}
		record.Images = append(record.Images, Image{URL: resolved, Alt: strings.TrimSpace(s.AttrOr("alt", ""))})
	})

	record.Prices = detectPrices(collapseWhitespace(root.Text()))
	record.Attributes = harvestAttributes(root)

	return record
}

// detectPrices returns unique price tokens in order of first appearance.
func detectPrices(text string) []string {
	var prices []string
	seen := make(map[string]bool)

	for _, re := range priceRegexps {
		for _, match := range re.FindAllString(text, -1) {
			token := strings.TrimSpace(match)
			if !seen[token] {
				seen[token] = true
				prices = append(prices, token)
			}
		}
	}
	return prices
}

// harvestAttributes collects key/value pairs from definition lists and
// two-plus-column table rows.
func harvestAttributes(root *goquery.Selection) map[string]string {
	attrs := make(map[string]string)

	root.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		terms := dl.Find("dt")
		defs := dl.Find("dd")
		terms.Each(func(i int, dt *goquery.Selection) {
			if i >= defs.Length() {
				return
			}
			key := collapseWhitespace(dt.Text())
			value := collapseWhitespace(defs.Eq(i).Text())
			if key != "" && value != "" {
				attrs[key] = value
			}
		})
	})

	root.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		key := collapseWhitespace(cells.Eq(0).Text())
		value := collapseWhitespace(cells.Eq(1).Text())
		if key != "" && value != "" {
			attrs[key] = value
		}
	})

	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

func resolveRef(base *url.URL, ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u.String(), true
}

func crawlableRef(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	lower := strings.ToLower(href)
	return !strings.HasPrefix(lower, "javascript:") && !strings.HasPrefix(lower, "mailto:") &&
		!strings.HasPrefix(lower, "tel:") && !strings.HasPrefix(lower, "data:")
}
