package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/* templates/*.html templates/views/*.html
var assetsFS embed.FS

// staticFS returns an http.FileSystem rooted at static/.
func staticFS() http.FileSystem {
	sub, err := fs.Sub(assetsFS, "static")
	if err != nil {
		return http.FS(assetsFS)
	}
	return http.FS(sub)
}
