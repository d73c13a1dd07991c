package page

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// nextPageVocabulary are the anchor texts and aria-labels that signal a
// forward navigation control.
var nextPageVocabulary = []string{"next page", "next", "›", "»", "forward", "more"}

// pagePathRegexp matches page numbers embedded in URL paths:
// /page/3, /pages/3, /p/3 and -page-3 forms.
var pagePathRegexp = regexp.MustCompile(`(?i)(?:/pages?/|/p/)(\d+)(?:/|$)|-page-(\d+)`)

// pageQueryParams are the query parameters recognized as page numbers.
var pageQueryParams = []string{"page", "p"}

// NextPageQuery describes one next-page lookup.
type NextPageQuery struct {
	HTML           string
	CurrentURL     string
	RegionSelector string            // optional pagination-region hint
	Visited        func(string) bool // optional loop guard; nil means nothing visited
}

// nextStrategy inspects a selection and proposes a next-page URL.
type nextStrategy func(region *goquery.Selection, current *url.URL) (string, bool)

// Ordered heuristic chain; the first strategy producing an acceptable
// URL wins.
var nextStrategies = []nextStrategy{
	nextByVocabulary,
	nextByCurrentNumber,
	nextByPageParameter,
}

// FindNextPage resolves the "next page" link for a document. When a
// region hint is supplied the strategies search inside it; otherwise
// (or when the hint matches nothing) they run against the whole
// document. A candidate equal to the current URL, or already visited,
// is rejected.
func FindNextPage(q NextPageQuery) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(q.HTML))
	if err != nil {
		return "", false
	}

	current, err := url.Parse(q.CurrentURL)
	if err != nil {
		return "", false
	}

	region := doc.Selection
	if q.RegionSelector != "" {
		if hinted := doc.Find(q.RegionSelector); hinted.Length() > 0 {
			region = hinted
		}
	}

	for _, strategy := range nextStrategies {
		candidate, ok := strategy(region, current)
		if !ok {
			continue
		}
		if candidate == q.CurrentURL {
			continue
		}
		if q.Visited != nil && q.Visited(candidate) {
			continue
		}
		return candidate, true
	}

	return "", false
}

// nextByVocabulary finds an anchor whose text, aria-label, or rel marks
// it as a forward control. Nested span/icon text is included via Text().
func nextByVocabulary(region *goquery.Selection, current *url.URL) (string, bool) {
	var found string

	region.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if rel, ok := a.Attr("rel"); ok && strings.EqualFold(strings.TrimSpace(rel), "next") {
			if resolved, ok := resolveHref(a, current); ok {
				found = resolved
				return false
			}
		}

		haystacks := []string{a.Text(), a.AttrOr("aria-label", ""), a.AttrOr("title", "")}
		for _, h := range haystacks {
			h = strings.ToLower(strings.TrimSpace(h))
			if h == "" {
				continue
			}
			for _, word := range nextPageVocabulary {
				if strings.Contains(h, word) {
					if resolved, ok := resolveHref(a, current); ok {
						found = resolved
						return false
					}
				}
			}
		}
		return true
	})

	return found, found != ""
}

// nextByCurrentNumber locates the active page indicator and looks for a
// link labeled with the following number.
func nextByCurrentNumber(region *goquery.Selection, current *url.URL) (string, bool) {
	currentNumber, ok := activePageNumber(region)
	if !ok {
		return "", false
	}

	want := strconv.Itoa(currentNumber + 1)
	var found string

	region.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.TrimSpace(a.Text()) != want {
			return true
		}
		if resolved, ok := resolveHref(a, current); ok {
			found = resolved
			return false
		}
		return true
	})

	return found, found != ""
}

// activePageNumber scans for an element carrying an active/current/
// selected class or aria-current="page" whose text is a number.
func activePageNumber(region *goquery.Selection) (int, bool) {
	selector := `[class*="active"], [class*="current"], [class*="selected"], [aria-current="page"]`

	number := 0
	found := false
	region.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		n, err := strconv.Atoi(strings.TrimSpace(s.Text()))
		if err != nil {
			return true
		}
		number = n
		found = true
		return false
	})

	return number, found
}

// nextByPageParameter finds an anchor whose href carries a numeric page
// parameter strictly greater than the current URL's page number.
func nextByPageParameter(region *goquery.Selection, current *url.URL) (string, bool) {
	currentNumber, ok := pageNumberFromURL(current)
	if !ok {
		currentNumber = 1
	}

	var found string
	region.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		resolved, ok := resolveHref(a, current)
		if !ok {
			return true
		}
		u, err := url.Parse(resolved)
		if err != nil {
			return true
		}
		n, ok := pageNumberFromURL(u)
		if ok && n > currentNumber {
			found = resolved
			return false
		}
		return true
	})

	return found, found != ""
}

// pageNumberFromURL parses a page number from the query string or path.
func pageNumberFromURL(u *url.URL) (int, bool) {
	query := u.Query()
	for _, param := range pageQueryParams {
		if v := query.Get(param); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n, true
			}
		}
	}

	m := pagePathRegexp.FindStringSubmatch(u.Path)
	if m == nil {
		return 0, false
	}
	for _, group := range m[1:] {
		if group != "" {
			if n, err := strconv.Atoi(group); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func resolveHref(a *goquery.Selection, current *url.URL) (string, bool) {
	href := strings.TrimSpace(a.AttrOr("href", ""))
	if !crawlableRef(href) {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := current.ResolveReference(u)
	resolved.Fragment = ""
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	return resolved.String(), true
}
