package crawler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"sitecount/internal/textstats"
)

func TestAnalyzeURLs_KeepsInputOrder(t *testing.T) {
	t.Parallel()

	log := newRequestLog()
	client := newFixtureClientWithRoutes(t, log, map[string]roundTripResponder{
		"/en": htmlPage(`<html><head><title>English</title></head><body><p>one two three</p></body></html>`),
		"/zh": htmlPage(`<html><head><title>中文</title></head><body><p>这是中文页面</p></body></html>`),
	})

	urls := []string{
		"https://example.com/zh",
		"",
		"   ",
		"https://example.com/en",
		" https://example.com/zh ",
	}

	report, err := AnalyzeURLs(context.Background(), urls, testOptions(client))
	require.NoError(t, err)

	require.Equal(t, ModeAnalyze, report.Mode)
	require.Empty(t, report.RootURL)
	require.Equal(t, []string{
		"https://example.com/zh",
		"https://example.com/en",
		"https://example.com/zh",
	}, pageURLs(report.Pages))
	require.Equal(t, 1, log.count("example.com/zh"))

	zh := report.Pages[0]
	require.Equal(t, "中文", zh.Title)
	require.Equal(t, textstats.Characters, zh.Stats.CountType)
	require.Equal(t, len([]rune("中文这是中文页面")), zh.Stats.Count)

	en := report.Pages[1]
	require.Equal(t, "English", en.Title)
	require.Equal(t, textstats.Words, en.Stats.CountType)
	require.Equal(t, 4, en.Stats.Count)

	require.Equal(t, Summary{
		TotalCount:   zh.Stats.Count*2 + en.Stats.Count,
		Pages:        3,
		PrimaryGroup: "CJK",
	}, report.Summary)
}

func TestAnalyzeURLs_FailuresBecomeErrorRows(t *testing.T) {
	t.Parallel()

	client := newFixtureClientWithRoutes(t, nil, map[string]roundTripResponder{
		"/ok": htmlPage(`<p>fine words</p>`),
	})

	urls := []string{
		"https://example.com/missing",
		"not a url",
		"https://example.com/ok",
	}

	report, err := AnalyzeURLs(context.Background(), urls, testOptions(client))
	require.NoError(t, err)
	require.Len(t, report.Pages, 3)

	missing := report.Pages[0]
	require.Equal(t, "Fetch Failed", missing.Title)
	require.Equal(t, "404 Not Found", missing.Error)
	require.Equal(t, textstats.Empty(), missing.Stats)

	invalid := report.Pages[1]
	require.Equal(t, "Fetch Failed", invalid.Title)
	require.True(t, strings.HasPrefix(invalid.Error, "invalid url"), invalid.Error)

	ok := report.Pages[2]
	require.Empty(t, ok.Error)
	require.Equal(t, 2, ok.Stats.Count)

	require.Equal(t, "Error", report.Summary.PrimaryGroup)
	require.Equal(t, 2, report.Summary.TotalCount)
}

func TestAnalyzeURLs_CleansTextBeforeCounting(t *testing.T) {
	t.Parallel()

	client := newFixtureClientWithRoutes(t, nil, map[string]roundTripResponder{
		"/": htmlPage("<html><body><div>\n   alpha  beta\n\n</div><style>.x{}</style><p>gamma</p></body></html>"),
	})

	report, err := AnalyzeURLs(context.Background(), []string{fixtureBaseURL}, testOptions(client))
	require.NoError(t, err)
	require.Len(t, report.Pages, 1)

	page := report.Pages[0]
	require.Equal(t, fixtureBaseURL, page.Title)
	require.Equal(t, 3, page.Stats.Count)
	require.Equal(t, "Latin", report.Summary.PrimaryGroup)
}

func TestAnalyzeURLs_Errors(t *testing.T) {
	t.Parallel()

	client := newFixtureClientWithRoutes(t, nil, nil)

	_, err := AnalyzeURLs(context.Background(), nil, testOptions(client))
	require.ErrorIs(t, err, ErrURLRequired)

	_, err = AnalyzeURLs(context.Background(), []string{" ", ""}, testOptions(client))
	require.ErrorIs(t, err, ErrURLRequired)

	opts := testOptions(nil)
	_, err = AnalyzeURLs(context.Background(), []string{fixtureBaseURL}, opts)
	require.ErrorIs(t, err, ErrHTTPClientRequired)
}

func TestAnalyzeURLs_OnPageFollowsInputOrder(t *testing.T) {
	t.Parallel()

	client := newFixtureClientWithRoutes(t, nil, map[string]roundTripResponder{
		"/a": htmlPage(`<p>a</p>`),
		"/b": htmlPage(`<p>b</p>`),
	})

	seen := []string{}
	opts := testOptions(client)
	opts.OnPage = func(page Page) {
		seen = append(seen, page.URL)
	}

	urls := []string{"https://example.com/b", "https://example.com/a"}
	_, err := AnalyzeURLs(context.Background(), urls, opts)
	require.NoError(t, err)
	require.Equal(t, urls, seen)
}

func TestMarshalReport(t *testing.T) {
	t.Parallel()

	client := newFixtureClientWithRoutes(t, nil, map[string]roundTripResponder{
		"/": htmlPage(`<title>Root</title><p>漢字漢字</p>`),
	})

	report, err := Crawl(context.Background(), testOptions(client))
	require.NoError(t, err)

	for _, indent := range []bool{false, true} {
		data := MarshalReport(report, indent)
		require.True(t, strings.HasSuffix(string(data), "\n"))

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Equal(t, "crawl", decoded["mode"])

		pages, ok := decoded["pages"].([]any)
		require.True(t, ok)
		require.Len(t, pages, 1)

		stats := pages[0].(map[string]any)["stats"].(map[string]any)
		require.Equal(t, "characters", stats["type"])
		require.Equal(t, "CJK", stats["language_group"])
		require.Contains(t, stats, "cjk_ratio")
	}

	require.Contains(t, string(MarshalReport(report, true)), "\n  \"mode\"")
}

func TestMarshalReport_EmptyReportHasPagesArray(t *testing.T) {
	t.Parallel()

	report := newReport(ModeCrawl, fixtureBaseURL, fixtureTime)
	data := MarshalReport(report, false)

	require.Contains(t, string(data), `"pages":[]`)
	require.Contains(t, string(data), `"primary_group":"-"`)
}

func TestAnalyzeURLs_NonHTMLIsStillMeasured(t *testing.T) {
	t.Parallel()

	client := newFixtureClientWithRoutes(t, nil, map[string]roundTripResponder{
		"/plain": func(req *http.Request) (*http.Response, error) {
			return responseForRequest(req, http.StatusOK, "just some text", http.Header{"Content-Type": []string{"text/plain"}}), nil
		},
	})

	report, err := AnalyzeURLs(context.Background(), []string{"https://example.com/plain"}, testOptions(client))
	require.NoError(t, err)
	require.Len(t, report.Pages, 1)
	require.Empty(t, report.Pages[0].Error)
	require.Equal(t, 3, report.Pages[0].Stats.Count)
}
