// Package web embeds the HTML templates and static assets served by the site.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var files embed.FS

// Templates returns the template tree rooted at layouts/, components/,
// partials/ and pages/.
func Templates() fs.FS {
	return mustSub("templates")
}

// Static returns the assets served under /static/.
func Static() fs.FS {
	return mustSub("static")
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(files, dir)
	if err != nil {
		panic("web: " + err.Error())
	}
	return sub
}
