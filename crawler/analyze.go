package crawler

import (
	"encoding/json"
	"sort"
	"time"

	"sitecount/internal/textstats"
)

// MarshalReport renders a report as JSON. Indent affects formatting only,
// and the output always ends with a newline.
func MarshalReport(report Report, indent bool) []byte {
	var (
		data []byte
		err  error
	)

	if indent {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}

	if err != nil {
		data = []byte(`{"error":"failed to marshal report"}`)
	}

	return ensureNewline(data)
}

func ensureNewline(data []byte) []byte {
	if len(data) == 0 || data[len(data)-1] != '\n' {
		return append(data, '\n')
	}

	return data
}

func newReport(mode string, rootURL string, now time.Time) Report {
	return Report{
		Mode:        mode,
		RootURL:     rootURL,
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Summary:     Summary{PrimaryGroup: "-"},
		Pages:       []Page{},
	}
}

func sortPages(pages []Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		if pages[i].Depth != pages[j].Depth {
			return pages[i].Depth < pages[j].Depth
		}

		return pages[i].URL < pages[j].URL
	})
}

// crawlSummary marks a site CJK as soon as any of its pages is.
func crawlSummary(pages []Page) Summary {
	summary := Summary{Pages: len(pages), PrimaryGroup: "-"}
	if len(pages) == 0 {
		return summary
	}

	summary.PrimaryGroup = string(textstats.Latin)
	for _, page := range pages {
		summary.TotalCount += page.Stats.Count
		if page.Stats.LanguageGroup == textstats.CJK {
			summary.PrimaryGroup = string(textstats.CJK)
		}
	}

	return summary
}

// listSummary takes the primary group from the first row.
func listSummary(pages []Page) Summary {
	summary := Summary{Pages: len(pages), PrimaryGroup: "-"}
	if len(pages) == 0 {
		return summary
	}

	for _, page := range pages {
		summary.TotalCount += page.Stats.Count
	}

	summary.PrimaryGroup = string(pages[0].Stats.LanguageGroup)
	if pages[0].Error != "" {
		summary.PrimaryGroup = "Error"
	}

	return summary
}
