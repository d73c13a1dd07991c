// Package parser provides HTML link and metadata extraction.
// It walks the parsed HTML tree and returns normalized same-domain
// links along with anchor and image metadata for downstream analysis.
package parser

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// LinkExtractor resolves and filters links found in a page.
type LinkExtractor struct {
	base *url.URL
}

// Anchor is one <a> element with its resolved target.
type Anchor struct {
	URL      string
	Text     string
	External bool
}

// ImageRef is one <img> element.
type ImageRef struct {
	URL string
	Alt string
}

// PageLinks contains everything the extractor pulled from one document.
type PageLinks struct {
	Title    string
	MetaDesc string
	Links    []string // normalized, same-domain, deduplicated, document order
	Anchors  []Anchor // every anchor, internal and external
	Images   []ImageRef
}

// NewLinkExtractor creates an extractor anchored at baseURL. Relative and
// protocol-relative hrefs resolve against it; only links on its host are
// reported in Links.
func NewLinkExtractor(baseURL string) (*LinkExtractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", baseURL)
	}

	return &LinkExtractor{base: base}, nil
}

// Extract parses htmlContent and collects links, anchors and images.
func (e *LinkExtractor) Extract(htmlContent []byte) (*PageLinks, error) {
	doc, err := html.Parse(strings.NewReader(string(htmlContent)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := &PageLinks{}
	seen := make(map[string]bool)
	e.traverse(doc, result, seen)

	return result, nil
}

func (e *LinkExtractor) traverse(n *html.Node, result *PageLinks, seen map[string]bool) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "title":
			if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				result.Title = strings.TrimSpace(n.FirstChild.Data)
			}

		case "meta":
			e.parseMeta(n, result)

		case "a":
			e.parseAnchor(n, result, seen)

		case "img":
			e.parseImage(n, result)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.traverse(c, result, seen)
	}
}

func (e *LinkExtractor) parseMeta(n *html.Node, result *PageLinks) {
	var name, content string
	for _, attr := range n.Attr {
		switch attr.Key {
		case "name":
			name = strings.ToLower(attr.Val)
		case "content":
			content = attr.Val
		}
	}

	if name == "description" {
		result.MetaDesc = content
	}
}

func (e *LinkExtractor) parseAnchor(n *html.Node, result *PageLinks, seen map[string]bool) {
	var href string
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			href = strings.TrimSpace(attr.Val)
			break
		}
	}

	if !crawlableHref(href) {
		return
	}

	resolved, err := e.resolve(href)
	if err != nil {
		return
	}

	target, err := url.Parse(resolved)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
		return
	}

	external := target.Host != e.base.Host

	result.Anchors = append(result.Anchors, Anchor{
		URL:      resolved,
		Text:     collapseSpace(extractText(n)),
		External: external,
	})

	if external || seen[resolved] {
		return
	}
	seen[resolved] = true
	result.Links = append(result.Links, resolved)
}

func (e *LinkExtractor) parseImage(n *html.Node, result *PageLinks) {
	var src, alt string
	for _, attr := range n.Attr {
		switch attr.Key {
		case "src":
			src = strings.TrimSpace(attr.Val)
		case "alt":
			alt = attr.Val
		}
	}

	if src == "" {
		return
	}
	resolved, err := e.resolve(src)
	if err != nil {
		return
	}

	result.Images = append(result.Images, ImageRef{URL: resolved, Alt: strings.TrimSpace(alt)})
}

func (e *LinkExtractor) resolve(href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", err
	}

	resolved := e.base.ResolveReference(u)
	resolved.Fragment = ""
	return resolved.String(), nil
}

// crawlableHref rejects hrefs that can never become a fetchable page link.
func crawlableHref(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}

	lower := strings.ToLower(href)
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:", "about:", "file:"} {
		if strings.HasPrefix(lower, scheme) {
			return false
		}
	}
	return true
}

func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}

	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := extractText(c); strings.TrimSpace(text) != "" {
			parts = append(parts, strings.TrimSpace(text))
		}
	}
	return strings.Join(parts, " ")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
