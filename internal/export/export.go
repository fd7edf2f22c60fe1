package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rodaine/table"

	"sitecount/crawler"
)

// Formats lists the supported report renderings.
var Formats = []string{"json", "csv", "table"}

var header = []string{"URL", "Title", "Count", "Type", "Group"}

// Write renders report to w in the given format.
func Write(w io.Writer, report crawler.Report, format string, indentJSON bool) error {
	switch strings.ToLower(format) {
	case "json", "":
		_, err := w.Write(crawler.MarshalReport(report, indentJSON))
		return err
	case "csv":
		return WriteCSV(w, report)
	case "table":
		return WriteTable(w, report)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteCSV writes one row per page with the URL, Title, Count, Type, Group header.
func WriteCSV(w io.Writer, report crawler.Report) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(header); err != nil {
		return err
	}

	for _, page := range report.Pages {
		if err := writer.Write(row(page)); err != nil {
			return err
		}
	}

	writer.Flush()

	return writer.Error()
}

// WriteTable writes an aligned text table followed by the summary line.
func WriteTable(w io.Writer, report crawler.Report) error {
	tbl := table.New("URL", "Title", "Count", "Type", "Group").WithWriter(w)
	for _, page := range report.Pages {
		cells := row(page)
		tbl.AddRow(cells[0], cells[1], cells[2], cells[3], cells[4])
	}
	tbl.Print()

	_, err := fmt.Fprintf(w, "\nTotal: %d  Pages: %d  Primary mode: %s\n",
		report.Summary.TotalCount,
		report.Summary.Pages,
		report.Summary.PrimaryGroup,
	)

	return err
}

func row(page crawler.Page) []string {
	if page.Error != "" {
		return []string{page.URL, page.Title, "0", "-", "Error: " + page.Error}
	}

	return []string{
		page.URL,
		page.Title,
		strconv.Itoa(page.Stats.Count),
		strings.ToUpper(string(page.Stats.CountType)),
		string(page.Stats.LanguageGroup),
	}
}
