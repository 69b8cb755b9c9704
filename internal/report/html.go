package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/searchex/internal/history"
)

// HTML renders the run report as a standalone dark-themed page.
func HTML(rec *history.RunRecord, files []*history.FileRecord) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert(Markdown(rec, files), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, pageData{
		Title: "Search Report " + rec.RunID,
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return page.Bytes(), nil
}

type pageData struct {
	Title string
	Body  template.HTML
}

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
:root {
  --bg: #101317;
  --panel: #161a20;
  --border: #2b2f36;
  --accent: #3b82f6;
  --code-bg: #131821;
  --muted: #9fb0c7;
}
* { box-sizing: border-box; }
body {
  margin: 0 auto;
  max-width: 960px;
  padding: 2rem 1.5rem 4rem;
  background: var(--bg);
  color: #e6edf3;
  font: 15px/1.6 -apple-system, "Segoe UI", Roboto, sans-serif;
}
h1 { border-bottom: 1px solid var(--border); padding-bottom: .5rem; }
h2 { color: var(--accent); margin-top: 2rem; }
table {
  width: 100%;
  border-collapse: collapse;
  background: var(--panel);
  border: 1px solid var(--border);
  margin: 1rem 0;
}
th, td {
  text-align: left;
  padding: .45rem .7rem;
  border-bottom: 1px solid var(--border);
}
th { color: var(--muted); font-weight: 600; }
tr:last-child td { border-bottom: none; }
code {
  background: var(--code-bg);
  border: 1px solid var(--border);
  border-radius: 4px;
  padding: .1rem .35rem;
  font-size: .9em;
}
blockquote {
  margin: 1rem 0;
  padding: .5rem 1rem;
  border-left: 3px solid var(--accent);
  background: var(--panel);
  color: var(--muted);
}
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))
