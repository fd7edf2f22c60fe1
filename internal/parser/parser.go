package parser

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is the visible content of an HTML page.
type Document struct {
	HasTitle bool
	Title    string
	Text     string
	Links    []string
}

// ParseHTML parses an HTML page and extracts its title, its outbound link
// targets (raw href values) and its visible text. Script and style content is
// not part of the text; text nodes are joined with single spaces.
func ParseHTML(body []byte) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Document{}, err
	}

	hasTitle, title := parseTitle(doc)

	return Document{
		HasTitle: hasTitle,
		Title:    title,
		Links:    parseLinks(doc),
		Text:     visibleText(doc),
	}, nil
}

func parseTitle(doc *goquery.Document) (bool, string) {
	selection := doc.Find("title").First()
	if selection.Length() == 0 {
		return false, ""
	}

	return true, cleanHumanText(selection.Text())
}

func parseLinks(doc *goquery.Document) []string {
	links := []string{}
	doc.Find("a[href]").Each(func(_ int, selection *goquery.Selection) {
		href, ok := selection.Attr("href")
		if !ok {
			return
		}

		links = append(links, strings.TrimSpace(href))
	})

	return links
}

func visibleText(doc *goquery.Document) string {
	doc.Find("script, style").Remove()

	parts := []string{}
	for _, root := range doc.Nodes {
		for node := range root.Descendants() {
			if node.Type != html.TextNode {
				continue
			}

			parts = append(parts, node.Data)
		}
	}

	return strings.Join(parts, " ")
}
