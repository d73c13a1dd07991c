package page

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractCards builds one Record per element matched by selector. An
// empty selector or a selector matching nothing yields no records and
// no error.
func ExtractCards(htmlContent, selector, pageURL string) ([]*Record, error) {
	if strings.TrimSpace(selector) == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	var records []*Record
	doc.Find(selector).Each(func(_ int, card *goquery.Selection) {
		records = append(records, extractFrom(card, base))
	})
	return records, nil
}
