package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"careplus/internal/models"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

// Chart geometry, in pixels. Bars scale against the accepted reading ceiling.
const (
	chartH   = 200
	barW     = 24
	barGap   = 8
	chartMin = 240
)

var page = template.Must(
	template.New("index.html.tmpl").Funcs(template.FuncMap{
		"chartWidth": func(points []models.TrendPoint) int {
			w := len(points) * (barW + barGap)
			if w < chartMin {
				return chartMin
			}
			return w
		},
		"chartHeight": func() int { return chartH },
		"barWidth":    func() int { return barW },
		"barX":        func(i int) int { return i * (barW + barGap) },
		"barHeight":   barHeight,
		"barY":        func(v float64) int { return chartH - barHeight(v) },
	}).ParseFS(templateFS, "templates/index.html.tmpl"),
)

func barHeight(v float64) int {
	if v <= 0 {
		return 0
	}
	h := int(v / models.MaxReadingMgdl * chartH)
	if h > chartH {
		return chartH
	}
	return h
}

// Render writes the page for view.
func Render(w io.Writer, view *View) error {
	if err := page.Execute(w, view); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}
