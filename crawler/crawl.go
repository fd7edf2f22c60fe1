package crawler

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"golang.org/x/sync/errgroup"

	"sitecount/internal/fetcher"
	"sitecount/internal/limiter"
	"sitecount/internal/logger"
	"sitecount/internal/urlutil"
)

type crawlJob struct {
	key      string
	fetchURL string
	depth    int
}

// crawlState is owned by the coordinating goroutine; fetch tasks never touch it.
type crawlState struct {
	visited  map[string]bool
	frontier map[string]crawlJob
	pages    []Page
}

type engine struct {
	opts  Options
	host  string
	fetch *fetcher.Fetcher
	gate  *limiter.Gate
	log   logger.Logger
}

// Crawl analyzes every page reachable from opts.URL without leaving its host.
//
// The traversal is breadth-first and layer-synchronous: all pages of a layer
// are fetched, at most opts.Concurrency at a time across the whole crawl,
// before the next layer is computed. Pages that fail to load, are not HTML or
// answer with a status other than 200 are skipped. Only an unusable seed URL or
// a missing HTTP client fail the crawl; cancellation of ctx stops dispatching
// and returns the pages analyzed so far together with ctx.Err().
func Crawl(ctx context.Context, opts Options) (Report, error) {
	opts = opts.withDefaults(DefaultCrawlTimeout)
	report := newReport(ModeCrawl, opts.URL, opts.Clock.Now())

	if opts.URL == "" {
		return report, ErrURLRequired
	}

	seed, err := urlutil.ParseAbsolute(opts.URL)
	if err != nil {
		return report, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}

	report.RootURL = seed.String()

	if opts.HTTPClient == nil {
		return report, ErrHTTPClientRequired
	}

	e := newEngine(opts, seed)
	pages, err := e.run(ctx, seed)

	sortPages(pages)
	report.Pages = pages
	report.Summary = crawlSummary(pages)

	e.log.Info("crawl finished",
		logger.Int("pages", len(pages)),
		logger.Int("peak_in_flight", e.gate.Peak()),
	)

	return report, err
}

func newEngine(opts Options, seed *url.URL) *engine {
	fetch := fetcher.New(opts.HTTPClient, fetcher.Config{
		Timeout:      opts.Timeout,
		UserAgent:    opts.UserAgent,
		Retries:      opts.Retries,
		MaxBodyBytes: opts.MaxBodyBytes,
	}, opts.Clock)

	return &engine{
		opts:  opts,
		host:  seed.Host,
		fetch: fetch,
		gate:  limiter.NewGate(opts.Concurrency),
		log:   opts.Logger.With(logger.String("host", seed.Host)),
	}
}

func (e *engine) run(ctx context.Context, seed *url.URL) ([]Page, error) {
	seedKey := urlutil.Normalize(seed)
	state := &crawlState{
		visited: map[string]bool{},
		frontier: map[string]crawlJob{
			seedKey: {key: seedKey, fetchURL: seed.String(), depth: 0},
		},
		pages: []Page{},
	}

	for len(state.frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return state.pages, err
		}

		batch := e.takeBatch(state)
		if len(batch) == 0 {
			break
		}

		e.log.Debug("dispatching layer",
			logger.Int("depth", batch[0].depth),
			logger.Int("pages", len(batch)),
		)

		outcomes := e.fetchLayer(ctx, batch)
		state.frontier = e.collect(state, outcomes)
	}

	return state.pages, ctx.Err()
}

// takeBatch moves every unvisited frontier URL into visited and returns them
// in a stable order. Once MaxPages URLs have been visited the rest is dropped.
func (e *engine) takeBatch(state *crawlState) []crawlJob {
	keys := make([]string, 0, len(state.frontier))
	for key := range state.frontier {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	batch := make([]crawlJob, 0, len(keys))
	for idx, key := range keys {
		if state.visited[key] {
			continue
		}

		if e.opts.MaxPages > 0 && len(state.visited) >= e.opts.MaxPages {
			e.log.Warn("page limit reached",
				logger.Int("max_pages", e.opts.MaxPages),
				logger.Int("unvisited", len(keys)-idx),
			)

			break
		}

		state.visited[key] = true
		batch = append(batch, state.frontier[key])
	}

	state.frontier = nil

	return batch
}

func (e *engine) fetchLayer(ctx context.Context, batch []crawlJob) []fetchOutcome {
	outcomes := make([]fetchOutcome, len(batch))

	var group errgroup.Group
	for idx, job := range batch {
		group.Go(func() error {
			outcomes[idx] = e.admit(ctx, job)

			return nil
		})
	}

	_ = group.Wait()

	return outcomes
}

func (e *engine) admit(ctx context.Context, job crawlJob) fetchOutcome {
	if err := e.gate.Acquire(ctx); err != nil {
		return fetchOutcome{job: job, err: err}
	}
	defer e.gate.Release()

	return e.fetchPage(ctx, job)
}

// collect folds a finished layer into the state and returns the next frontier.
func (e *engine) collect(state *crawlState, outcomes []fetchOutcome) map[string]crawlJob {
	next := map[string]crawlJob{}

	for _, outcome := range outcomes {
		if outcome.err != nil {
			e.log.Warn("page skipped",
				logger.String("url", outcome.job.fetchURL),
				logger.Error(outcome.err),
			)

			continue
		}

		state.pages = append(state.pages, outcome.page)
		if e.opts.OnPage != nil {
			e.opts.OnPage(outcome.page)
		}

		depth := outcome.job.depth + 1
		if e.opts.MaxDepth > 0 && depth > e.opts.MaxDepth {
			continue
		}

		for _, link := range outcome.links {
			if !urlutil.SameHost(link, e.host) {
				continue
			}

			key := urlutil.Normalize(link)
			if state.visited[key] {
				continue
			}

			if _, queued := next[key]; queued {
				continue
			}

			next[key] = crawlJob{key: key, fetchURL: key, depth: depth}
		}
	}

	return next
}
