package export

import (
	"encoding/json"
	"html/template"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pricelens/pricewatch/internal/model"
)

var htmlFuncs = template.FuncMap{
	"title": func(s string) string { return strings.ReplaceAll(s, "_", " ") },
	"num":   formatNumber,
	"deref": func(f *float64) float64 {
		if f == nil {
			return 0
		}
		return *f
	},
	"display": displayName,
	"json": func(v any) string {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err.Error()
		}
		return string(data)
	},
}

var recordsTemplate = template.Must(template.New("records").Funcs(htmlFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Product Records</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
th { background: #f0f0f0; }
</style>
</head>
<body>
<h1>Product Records</h1>
<table>
<tr><th>Platform</th><th>Product ID</th><th>Name</th><th>Price</th><th>Currency</th><th>Rating</th><th>Captured At</th></tr>
{{range .}}<tr>
<td>{{.Platform}}</td>
<td>{{.ProductID}}</td>
<td>{{if .URL}}<a href="{{.URL}}">{{display .Name}}</a>{{else}}{{display .Name}}{{end}}</td>
<td>{{num .Price}}</td>
<td>{{.Currency}}</td>
<td>{{if .Rating}}{{num (deref .Rating)}}{{end}}</td>
<td>{{.Timestamp.Format "2006-01-02 15:04"}}</td>
</tr>
{{end}}</table>
</body>
</html>
`))

var resultTemplate = template.Must(template.New("result").Funcs(htmlFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{title .AnalysisType}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 1em; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
th { background: #f0f0f0; }
pre { background: #f8f8f8; padding: 1em; overflow-x: auto; }
.warning { color: #a00; }
</style>
</head>
<body>
<h1>{{title .AnalysisType}}</h1>
<p>Generated: {{.Timestamp.Format "2006-01-02 15:04:05 MST"}}</p>
{{if .Metadata}}<h2>Metadata</h2>
<pre>{{json .Metadata}}</pre>
{{end}}{{range $key := .SectionKeys}}<h2>{{title $key}}</h2>
<pre>{{json (index $.Data $key)}}</pre>
{{end}}{{if .Warnings}}<h2>Warnings</h2>
<ul>
{{range .Warnings}}<li class="warning"><strong>{{.Section}}</strong>: {{.Message}}</li>
{{end}}</ul>
{{end}}</body>
</html>
`))

// resultView decorates an AnalysisResult with deterministic section order
// for template iteration.
type resultView struct {
	*model.AnalysisResult
	SectionKeys []string
}

// WriteRecordsHTML writes records as a standalone HTML table page.
func WriteRecordsHTML(w io.Writer, records []model.ProductRecord) error {
	return eris.Wrap(recordsTemplate.Execute(w, records), "export: render records html")
}

// WriteResultHTML writes an analysis result as a standalone HTML report.
func WriteResultHTML(w io.Writer, result *model.AnalysisResult) error {
	view := resultView{AnalysisResult: result, SectionKeys: sortedKeys(result.Data)}
	return eris.Wrap(resultTemplate.Execute(w, view), "export: render result html")
}
