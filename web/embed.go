// Package web carries the dashboard's HTML templates and browser assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var assets embed.FS

// Templates returns the HTML templates rooted at the templates directory.
func Templates() fs.FS { return sub("templates") }

// Static returns the scripts and stylesheets served under /static/.
func Static() fs.FS { return sub("static") }

func sub(dir string) fs.FS {
	f, err := fs.Sub(assets, dir)
	if err != nil {
		// fs.Sub only fails for an invalid path.
		panic(err)
	}
	return f
}
