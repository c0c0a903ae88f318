// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package templates holds the compiled-in HTML templates and applies
// directory overrides. The set is parsed once at startup; an override
// file with a built-in's name replaces it wholesale.
package templates

import (
	"fmt"
	"html/template"
	"path/filepath"
	"sort"

	log "github.com/sirupsen/logrus"
)

const indexHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<ul>
{{range .Databases}}<li><a href="/{{.Name}}">{{.Name}}</a>: {{.TableCount}} tables{{if not .Mutable}} (immutable){{end}}</li>
{{end}}</ul>
</body>
</html>
`

const databaseHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Database}}</title></head>
<body>
<h1>{{.Database}}</h1>
<ul>
{{range .Tables}}<li><a href="/{{$.Database}}/{{.Name}}">{{.Name}}</a>: {{.Count}} rows</li>
{{end}}</ul>
</body>
</html>
`

const tableHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Database}}: {{.Table}}</title></head>
<body>
<h1>{{.Database}}: {{.Table}}</h1>
<table>
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
{{if .Truncated}}<p>Showing the first {{len .Rows}} rows.</p>{{end}}
</body>
</html>
`

const rowHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Database}}: {{.Table}}: row {{.RowID}}</title></head>
<body>
<h1>{{.Database}}: {{.Table}}: row {{.RowID}}</h1>
<table>
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
<tr>{{range .Row}}<td>{{.}}</td>{{end}}</tr>
</table>
</body>
</html>
`

var builtins = map[string]string{
	"index.html":    indexHTML,
	"database.html": databaseHTML,
	"table.html":    tableHTML,
	"row.html":      rowHTML,
}

// Names returns the built-in template names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load parses the built-in templates and, when overrideDir is non-empty,
// the *.html files inside it. Overrides sharing a built-in name win.
func Load(overrideDir string) (*template.Template, error) {
	root := template.New("dataserve")
	for name, src := range builtins {
		if _, err := root.New(name).Parse(src); err != nil {
			return nil, fmt.Errorf("failed to parse built-in template %s: %w", name, err)
		}
	}

	if overrideDir == "" {
		return root, nil
	}

	pattern := filepath.Join(overrideDir, "*.html")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob templates in %s: %w", overrideDir, err)
	}
	if len(matches) == 0 {
		return root, nil
	}

	if _, err := root.ParseGlob(pattern); err != nil {
		return nil, fmt.Errorf("failed to parse template overrides in %s: %w", overrideDir, err)
	}
	log.Debugf("Loaded %d template overrides from %s", len(matches), overrideDir)
	return root, nil
}
