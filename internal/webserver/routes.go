package webserver

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/spboyer/agentra/internal/reporting"
	"github.com/spboyer/agentra/internal/webapi"
)

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"percent":    func(score float64) string { return fmt.Sprintf("%.0f%%", score*100) },
	"icon":       reporting.StatusIcon,
	"pathEscape": url.PathEscape,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Agentra Results</title>
</head>
<body>
<h1>Agentra Results</h1>
{{- if .}}
<table>
<thead><tr><th>Name</th><th>Score</th><th>Status</th><th>Traces</th><th>Saved</th></tr></thead>
<tbody>
{{- range .}}
<tr><td><a href="/api/results/{{pathEscape .Filename}}/report">{{.Name}}</a></td><td>{{percent .Score}}</td><td>{{icon .Status}} {{.Status}}</td><td>{{.Traces}}</td><td>{{.Timestamp.UTC.Format "2006-01-02 15:04"}}</td></tr>
{{- end}}
</tbody>
</table>
{{- else}}
<p>No saved results found.</p>
{{- end}}
</body>
</html>
`))

// registerRoutes sets up the API routes and the HTML index on the given mux.
func registerRoutes(mux *http.ServeMux, store webapi.ResultStore) {
	webapi.RegisterRoutes(mux, store)
	mux.HandleFunc("GET /{$}", indexHandler(store))
}

func indexHandler(store webapi.ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		entries, err := store.List()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTemplate.Execute(w, entries); err != nil {
			slog.Debug("rendering results index", "error", err)
		}
	}
}
