package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHTML(t *testing.T) {
	t.Parallel()

	body := []byte(`<!doctype html>
<html>
<head>
  <title>
    Example   Page
  </title>
  <style>body { color: red; }</style>
  <script>var hidden = "do not count";</script>
</head>
<body>
  <h1>Hello</h1>
  <p>visible <b>words</b> here</p>
  <!-- a comment -->
  <a href=" /about ">About</a>
  <a href="https://other.example.com/x">Other</a>
  <a>No href</a>
  <script src="/app.js"></script>
</body>
</html>`)

	doc, err := ParseHTML(body)
	require.NoError(t, err)

	require.True(t, doc.HasTitle)
	require.Equal(t, "Example Page", doc.Title)
	require.Equal(t, []string{"/about", "https://other.example.com/x"}, doc.Links)

	require.NotContains(t, doc.Text, "color: red")
	require.NotContains(t, doc.Text, "do not count")
	require.NotContains(t, doc.Text, "a comment")
	require.Equal(t,
		[]string{"Example", "Page", "Hello", "visible", "words", "here", "About", "Other", "No", "href"},
		strings.Fields(doc.Text),
	)
}

func TestParseHTMLMissingTitle(t *testing.T) {
	t.Parallel()

	doc, err := ParseHTML([]byte(`<html><body><p>只有正文</p></body></html>`))
	require.NoError(t, err)

	require.False(t, doc.HasTitle)
	require.Empty(t, doc.Title)
	require.Empty(t, doc.Links)
	require.Equal(t, "只有正文", strings.TrimSpace(doc.Text))
}

func TestParseHTMLAdjacentElementsStaySeparated(t *testing.T) {
	t.Parallel()

	doc, err := ParseHTML([]byte(`<div><span>one</span><span>two</span></div>`))
	require.NoError(t, err)

	require.Equal(t, []string{"one", "two"}, strings.Fields(doc.Text))
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "empty", text: "", want: ""},
		{name: "blank lines dropped", text: "\n\n  first line  \n\n\nsecond\n", want: "first line\nsecond"},
		{name: "double space splits", text: "Home  About  Contact", want: "Home\nAbout\nContact"},
		{name: "single space kept", text: "one two three", want: "one two three"},
		{name: "crlf", text: "a\r\nb", want: "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, CleanText(tt.text))
		})
	}
}
