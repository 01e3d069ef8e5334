// Package ui serves the embedded dashboard frontend. The frontend is a
// static page that drives the local API under /api/v1.
package ui

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed all:dist
var distFS embed.FS

// DistFS returns the embedded dist/ filesystem with the "dist" prefix stripped.
func DistFS() (fs.FS, error) {
	return fs.Sub(distFS, "dist")
}

// Handler returns an http.Handler that serves the embedded dashboard with SPA
// fallback. Static files are served directly; paths without a file extension
// are client-side routes and get index.html. Missing assets return 404.
func Handler() (http.Handler, error) {
	sub, err := DistFS()
	if err != nil {
		return nil, err
	}

	fileServer := http.FileServerFS(sub)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := path.Clean(r.URL.Path)
		if p == "/" {
			fileServer.ServeHTTP(w, r)
			return
		}
		p = strings.TrimPrefix(p, "/")

		if _, err := fs.Stat(sub, p); err == nil {
			fileServer.ServeHTTP(w, r)
			return
		}

		// Has an extension: a genuinely missing asset.
		if strings.Contains(p, ".") {
			http.NotFound(w, r)
			return
		}

		// Client-side route, serve index.html.
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	}), nil
}
