package crawler

import (
	"errors"
	"net/http"
	"time"

	"sitecount/internal/limiter"
	"sitecount/internal/logger"
	"sitecount/internal/textstats"
)

const (
	// DefaultConcurrency is the crawl-wide cap on in-flight fetches.
	DefaultConcurrency = 5
	// DefaultCrawlTimeout bounds each fetch of a crawl.
	DefaultCrawlTimeout = 12 * time.Second
	// DefaultAnalyzeTimeout bounds each fetch of an explicit URL list.
	DefaultAnalyzeTimeout = 10 * time.Second
)

const (
	ModeCrawl   = "crawl"
	ModeAnalyze = "analyze"
)

var (
	ErrURLRequired        = errors.New("url is required")
	ErrInvalidSeed        = errors.New("invalid seed url")
	ErrHTTPClientRequired = errors.New("http client is required")
)

// Options configures crawler behavior.
// Concurrency caps in-flight fetches for the whole run, not per layer.
// MaxPages caps the number of pages fetched and MaxDepth the link distance
// from the seed; zero leaves either unlimited.
// Retries is the number of retries after the first attempt.
// OnPage, when set, is called from the coordinating goroutine for every
// analyzed page as soon as its layer completes.
type Options struct {
	URL          string
	Concurrency  int
	Timeout      time.Duration
	MaxPages     int
	MaxDepth     int
	Retries      int
	UserAgent    string
	MaxBodyBytes int64
	IndentJSON   bool
	HTTPClient   *http.Client
	Clock        limiter.Timer
	Logger       logger.Logger
	OnPage       func(Page)
}

// Report is the result of a crawl or of an explicit URL list analysis.
type Report struct {
	Mode        string  `json:"mode"`
	RootURL     string  `json:"root_url,omitempty"`
	GeneratedAt string  `json:"generated_at"`
	Summary     Summary `json:"summary"`
	Pages       []Page  `json:"pages"`
}

// Summary aggregates the pages of a report.
type Summary struct {
	TotalCount   int    `json:"total_count"`
	Pages        int    `json:"pages"`
	PrimaryGroup string `json:"primary_group"`
}

// Page is the length metric of one page. Error is set only for rows of an
// explicit URL list whose fetch failed; crawls never report failed pages.
type Page struct {
	URL   string          `json:"url"`
	Title string          `json:"title"`
	Depth int             `json:"depth"`
	Stats textstats.Stats `json:"stats"`
	Error string          `json:"error,omitempty"`
}

func (o Options) withDefaults(timeout time.Duration) Options {
	if o.Concurrency < 1 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Timeout <= 0 {
		o.Timeout = timeout
	}
	if o.MaxPages < 0 {
		o.MaxPages = 0
	}
	if o.MaxDepth < 0 {
		o.MaxDepth = 0
	}
	if o.Clock == nil {
		o.Clock = limiter.NewClock()
	}
	if o.Logger == nil {
		o.Logger = logger.NewNop()
	}

	return o
}
