package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"sitecount/internal/fetcher"
	"sitecount/internal/parser"
	"sitecount/internal/textstats"
	"sitecount/internal/urlutil"
)

var errNotHTML = errors.New("not an html page")

// fetchOutcome is what a fetch task hands back to the coordinator: either a
// page with its resolved outbound links, or the reason the page was skipped.
type fetchOutcome struct {
	job   crawlJob
	page  Page
	links []*url.URL
	err   error
}

func (e *engine) fetchPage(ctx context.Context, job crawlJob) fetchOutcome {
	outcome := fetchOutcome{job: job}

	result, err := e.fetch.Fetch(ctx, job.fetchURL)
	if err != nil {
		outcome.err = err
		return outcome
	}

	if result.StatusCode != http.StatusOK {
		outcome.err = &fetcher.StatusError{Code: result.StatusCode}
		return outcome
	}

	if !result.IsHTML() {
		outcome.err = fmt.Errorf("%w: content type %q", errNotHTML, result.ContentType())
		return outcome
	}

	doc, err := parseBody(result)
	if err != nil {
		outcome.err = err
		return outcome
	}

	outcome.page = Page{
		URL:   job.fetchURL,
		Title: pageTitle(doc, job.fetchURL),
		Depth: job.depth,
		Stats: textstats.Classify(doc.Text),
	}
	outcome.links = resolveLinks(pageBase(result, job.fetchURL), doc.Links)

	return outcome
}

func parseBody(result fetcher.Result) (parser.Document, error) {
	body, err := result.UTF8Body()
	if err != nil {
		return parser.Document{}, err
	}

	doc, err := parser.ParseHTML(body)
	if err != nil {
		return parser.Document{}, fmt.Errorf("parse html: %w", err)
	}

	return doc, nil
}

func pageTitle(doc parser.Document, pageURL string) string {
	if doc.Title == "" {
		return pageURL
	}

	return doc.Title
}

// pageBase is the URL relative links are resolved against: the address the
// page was finally served from after redirects.
func pageBase(result fetcher.Result, requested string) *url.URL {
	if result.FinalURL != "" {
		if base, err := url.Parse(result.FinalURL); err == nil {
			return base
		}
	}

	base, err := url.Parse(requested)
	if err != nil {
		return nil
	}

	return base
}

// resolveLinks turns raw href values into absolute HTTP(S) URLs. Links that
// cannot be resolved are dropped silently.
func resolveLinks(base *url.URL, hrefs []string) []*url.URL {
	if base == nil {
		return nil
	}

	links := make([]*url.URL, 0, len(hrefs))
	for _, href := range hrefs {
		link, ok := urlutil.Resolve(base, href)
		if !ok {
			continue
		}

		links = append(links, link)
	}

	return links
}
