package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli"

	"sitecount/crawler"
	"sitecount/internal/config"
	"sitecount/internal/export"
	"sitecount/internal/fetcher"
	"sitecount/internal/limiter"
	"sitecount/internal/logger"
)

// Run executes the CLI and writes the report to stdout; logs go to stderr.
// A nil client is replaced by one built from the configuration.
// If no URL is given, it prints help and returns nil.
func Run(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout, stderr io.Writer,
	client *http.Client,
	clock limiter.Timer,
) error {
	app := cli.NewApp()
	app.Name = "sitecount"
	app.Usage = "count words or CJK characters of web pages"
	app.Writer = stdout
	app.ErrWriter = stderr
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "path to a YAML config file",
		},
		cli.StringFlag{
			Name:  "format",
			Usage: "report format: json, csv or table",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "log level: debug, info, warn, error",
		},
		cli.StringFlag{
			Name:  "log-format",
			Usage: "log format: console or json",
		},
	}

	r := &runner{
		ctx:    ctx,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		client: client,
		clock:  clock,
	}

	app.Commands = []cli.Command{
		{
			Name:      "crawl",
			Usage:     "crawl a whole site within its host and measure every page",
			ArgsUsage: "<url>",
			Flags:     crawlFlags(),
			Action:    r.crawl,
		},
		{
			Name:      "analyze",
			Usage:     "measure the given pages without following links",
			ArgsUsage: "<url>...",
			Flags:     analyzeFlags(),
			Action:    r.analyze,
		},
	}

	return app.Run(args)
}

func crawlFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "concurrency",
			Usage: "maximum number of fetches in flight",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Usage: "per-request timeout",
		},
		cli.IntFlag{
			Name:  "max-pages",
			Usage: "stop after this many pages (0 = unlimited)",
		},
		cli.IntFlag{
			Name:  "max-depth",
			Usage: "maximum link distance from the seed (0 = unlimited)",
		},
		cli.IntFlag{
			Name:  "retries",
			Usage: "number of retries for temporary failures",
		},
		cli.StringFlag{
			Name:  "user-agent",
			Usage: "custom user agent",
		},
		cli.BoolTFlag{
			Name:  "insecure",
			Usage: "skip TLS certificate verification",
		},
	}
}

func analyzeFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "input",
			Usage: "read URLs, one per line, from a file (- for stdin)",
		},
		cli.IntFlag{
			Name:  "concurrency",
			Usage: "maximum number of fetches in flight",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Usage: "per-request timeout",
		},
	}
}

type runner struct {
	ctx    context.Context
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	client *http.Client
	clock  limiter.Timer
}

func (r *runner) crawl(c *cli.Context) error {
	rootURL := c.Args().First()
	if rootURL == "" {
		return cli.ShowCommandHelp(c, "crawl")
	}

	cfg, log, err := r.setup(c)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	applyCrawlFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := crawler.Options{
		URL:          rootURL,
		Concurrency:  cfg.Crawler.Concurrency,
		Timeout:      cfg.Crawler.Timeout,
		MaxPages:     cfg.Crawler.MaxPages,
		MaxDepth:     cfg.Crawler.MaxDepth,
		Retries:      cfg.Crawler.Retries,
		UserAgent:    cfg.Crawler.UserAgent,
		MaxBodyBytes: cfg.Crawler.MaxBodyBytes,
		IndentJSON:   true,
		HTTPClient:   r.httpClient(cfg.Crawler.Timeout, cfg.Crawler.InsecureTLS),
		Clock:        r.clock,
		Logger:       log,
		OnPage:       logPage(log),
	}

	report, err := crawler.Crawl(r.ctx, opts)
	if err != nil && report.Summary.Pages == 0 {
		return err
	}

	if len(report.Pages) == 0 {
		log.Warn("no pages found", logger.String("url", rootURL))
	}

	if writeErr := export.Write(r.stdout, report, cfg.Output.Format, opts.IndentJSON); writeErr != nil {
		return writeErr
	}

	return err
}

func (r *runner) analyze(c *cli.Context) error {
	urls := append([]string{}, c.Args()...)

	if input := c.String("input"); input != "" {
		fromInput, err := r.readURLs(input)
		if err != nil {
			return err
		}

		urls = append(urls, fromInput...)
	}

	if len(urls) == 0 {
		return cli.ShowCommandHelp(c, "analyze")
	}

	cfg, log, err := r.setup(c)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if c.IsSet("concurrency") {
		cfg.Analyze.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("timeout") {
		cfg.Analyze.Timeout = c.Duration("timeout")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := crawler.Options{
		Concurrency:  cfg.Analyze.Concurrency,
		Timeout:      cfg.Analyze.Timeout,
		Retries:      cfg.Crawler.Retries,
		UserAgent:    cfg.Crawler.UserAgent,
		MaxBodyBytes: cfg.Crawler.MaxBodyBytes,
		IndentJSON:   true,
		HTTPClient:   r.httpClient(cfg.Analyze.Timeout, cfg.Crawler.InsecureTLS),
		Clock:        r.clock,
		Logger:       log,
	}

	report, err := crawler.AnalyzeURLs(r.ctx, urls, opts)
	if err != nil && len(report.Pages) == 0 {
		return err
	}

	if writeErr := export.Write(r.stdout, report, cfg.Output.Format, opts.IndentJSON); writeErr != nil {
		return writeErr
	}

	return err
}

func (r *runner) setup(c *cli.Context) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return nil, nil, err
	}

	if c.GlobalIsSet("format") {
		cfg.Output.Format = c.GlobalString("format")
	}
	if c.GlobalIsSet("log-level") {
		cfg.Logging.Level = c.GlobalString("log-level")
	}
	if c.GlobalIsSet("log-format") {
		cfg.Logging.Format = c.GlobalString("log-format")
	}

	log, err := logger.New(r.stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, err
	}

	return cfg, log, nil
}

func applyCrawlFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("concurrency") {
		cfg.Crawler.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("timeout") {
		cfg.Crawler.Timeout = c.Duration("timeout")
	}
	if c.IsSet("max-pages") {
		cfg.Crawler.MaxPages = c.Int("max-pages")
	}
	if c.IsSet("max-depth") {
		cfg.Crawler.MaxDepth = c.Int("max-depth")
	}
	if c.IsSet("retries") {
		cfg.Crawler.Retries = c.Int("retries")
	}
	if c.IsSet("user-agent") {
		cfg.Crawler.UserAgent = c.String("user-agent")
	}
	if c.IsSet("insecure") {
		cfg.Crawler.InsecureTLS = c.BoolT("insecure")
	}
}

func (r *runner) httpClient(timeout time.Duration, insecure bool) *http.Client {
	if r.client != nil {
		return r.client
	}

	return fetcher.NewHTTPClient(timeout, insecure)
}

func (r *runner) readURLs(input string) ([]string, error) {
	var reader io.Reader = r.stdin
	if input != "-" {
		file, err := os.Open(input)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer func() { _ = file.Close() }()

		reader = file
	}

	urls := []string{}
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	return urls, nil
}

func logPage(log logger.Logger) func(crawler.Page) {
	return func(page crawler.Page) {
		log.Debug("page analyzed",
			logger.String("url", page.URL),
			logger.Int("count", page.Stats.Count),
			logger.String("type", string(page.Stats.CountType)),
		)
	}
}
