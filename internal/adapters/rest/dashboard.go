package rest

import (
	_ "embed"
	"html/template"
	"net/http"
)

//go:embed dashboard.html
var dashboardHTML string

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardHTML))

// Dashboard handles GET /: the interactive shell around the chart.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, map[string]string{"Title": h.chart.Title}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
