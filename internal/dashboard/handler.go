package dashboard

import (
	"bytes"
	"net/http"
)

// Handler serves the rendered page at / and filters by the q parameter.
func (d *Dashboard) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		view, err := d.Load(r.Context())
		if err != nil {
			d.logger.Error("dashboard load failed", map[string]interface{}{"error": err})
			http.Error(w, "Care+ API unavailable", http.StatusBadGateway)
			return
		}
		view.Query = r.URL.Query().Get("q")

		var buf bytes.Buffer
		if err := Render(&buf, view); err != nil {
			d.logger.Error("dashboard render failed", map[string]interface{}{"error": err})
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
	})
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}
