// Package web serves the browser client: a single page that talks to the
// JSON API with a bearer token kept in localStorage.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed static
var assetsFS embed.FS

const indexFile = "index.html"

var resolveStaticFS = func() (fs.FS, error) {
	return fs.Sub(assetsFS, "static")
}

func withStaticMime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch path := strings.ToLower(r.URL.Path); {
		case strings.HasSuffix(path, ".css"):
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
		case strings.HasSuffix(path, ".js"):
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		case strings.HasSuffix(path, ".svg"):
			w.Header().Set("Content-Type", "image/svg+xml")
		}
		next.ServeHTTP(w, r)
	})
}

// RegisterRoutes mounts static assets under /static/ and serves the client
// shell for every other GET that no more specific route claims. The shell is
// registered without a method so /api/ fallbacks stay more specific.
func RegisterRoutes(mux *http.ServeMux) error {
	if mux == nil {
		return nil
	}
	staticFS, err := resolveStaticFS()
	if err != nil {
		return fmt.Errorf("register static routes: %w", err)
	}
	index, err := fs.ReadFile(staticFS, indexFile)
	if err != nil {
		return fmt.Errorf("read client shell: %w", err)
	}

	mux.Handle("GET /static/", withStaticMime(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(index)
	})
	return nil
}
