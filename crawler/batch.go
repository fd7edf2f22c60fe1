package crawler

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"sitecount/internal/cache"
	"sitecount/internal/fetcher"
	"sitecount/internal/logger"
	"sitecount/internal/parser"
	"sitecount/internal/textstats"
	"sitecount/internal/urlutil"
)

const fetchFailedTitle = "Fetch Failed"

// AnalyzeURLs measures each of the given pages without following links.
// Rows keep the input order; blank entries are ignored and repeated URLs are
// fetched once. A URL that cannot be fetched yields a row with a zero count
// and its error instead of failing the batch.
func AnalyzeURLs(ctx context.Context, urls []string, opts Options) (Report, error) {
	opts = opts.withDefaults(DefaultAnalyzeTimeout)
	report := newReport(ModeAnalyze, "", opts.Clock.Now())

	targets := make([]string, 0, len(urls))
	for _, raw := range urls {
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			targets = append(targets, trimmed)
		}
	}

	if len(targets) == 0 {
		return report, ErrURLRequired
	}

	if opts.HTTPClient == nil {
		return report, ErrHTTPClientRequired
	}

	fetch := fetcher.New(opts.HTTPClient, fetcher.Config{
		Timeout:      opts.Timeout,
		UserAgent:    opts.UserAgent,
		Retries:      opts.Retries,
		MaxBodyBytes: opts.MaxBodyBytes,
	}, opts.Clock)

	rows := cache.New[Page]()

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(opts.Concurrency)

	for _, target := range unique(targets) {
		group.Go(func() error {
			page := analyzeOne(groupCtx, fetch, target)
			if page.Error != "" {
				opts.Logger.Warn("analysis failed",
					logger.String("url", target),
					logger.String("error", page.Error),
				)
			}

			rows.Set(target, page)

			return nil
		})
	}

	_ = group.Wait()

	for _, target := range targets {
		page, _ := rows.Get(target)
		report.Pages = append(report.Pages, page)
		if opts.OnPage != nil {
			opts.OnPage(page)
		}
	}

	report.Summary = listSummary(report.Pages)

	return report, ctx.Err()
}

func analyzeOne(ctx context.Context, fetch *fetcher.Fetcher, target string) Page {
	parsed, err := urlutil.ParseAbsolute(target)
	if err != nil {
		return failedPage(target, fmt.Errorf("invalid url: %w", err))
	}

	result, err := fetch.Fetch(ctx, parsed.String())
	if err != nil {
		return failedPage(target, err)
	}

	doc, err := parseBody(result)
	if err != nil {
		return failedPage(target, err)
	}

	return Page{
		URL:   target,
		Title: pageTitle(doc, target),
		Stats: textstats.Classify(parser.CleanText(doc.Text)),
	}
}

func failedPage(target string, err error) Page {
	return Page{
		URL:   target,
		Title: fetchFailedTitle,
		Stats: textstats.Empty(),
		Error: err.Error(),
	}
}

func unique(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))

	for _, value := range values {
		if seen[value] {
			continue
		}

		seen[value] = true
		out = append(out, value)
	}

	return out
}
