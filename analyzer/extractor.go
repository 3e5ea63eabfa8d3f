package analyzer

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sentinels reported when a page has no title or meta description
const (
	NoTitle       = "لا يوجد عنوان"
	NoDescription = "لا يوجد وصف"
)

// hiddenElements never contribute to the visible text of a page
var hiddenElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

// Extract parses an HTML document fetched from pageURL
func Extract(pageURL string, body []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return &Page{
		URL:         pageURL,
		Title:       extractTitle(doc),
		Description: extractDescription(doc),
		ImageURL:    extractImage(doc, pageURL),
		Text:        visibleText(doc),
	}, nil
}

func extractTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return NoTitle
	}
	return title
}

func extractDescription(doc *goquery.Document) string {
	content, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	if content = strings.TrimSpace(content); content == "" {
		return NoDescription
	}
	return content
}

// extractImage prefers the Open Graph image over the first <img> on the page
func extractImage(doc *goquery.Document, pageURL string) string {
	if content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && content != "" {
		return content
	}

	src, ok := doc.Find("img").First().Attr("src")
	if !ok || src == "" {
		return ""
	}
	return resolveImageURL(pageURL, src)
}

func resolveImageURL(pageURL, src string) string {
	switch {
	case strings.HasPrefix(src, "//"):
		return "https:" + src
	case strings.HasPrefix(src, "/"):
		base, err := url.Parse(pageURL)
		if err != nil {
			return src
		}
		ref, err := url.Parse(src)
		if err != nil {
			return src
		}
		return base.ResolveReference(ref).String()
	default:
		return src
	}
}

func visibleText(doc *goquery.Document) string {
	var parts []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			parts = append(parts, n.Data)
			return
		case html.ElementNode:
			if hiddenElements[n.DataAtom] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range doc.Nodes {
		walk(n)
	}

	return strings.Join(parts, " ")
}
