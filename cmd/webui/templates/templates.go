// Package templates renders the grading form.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"sync"
)

//go:embed index.html
var files embed.FS

var (
	index    *template.Template
	initOnce sync.Once
	initErr  error
)

// IndexResult is the graded outcome shown under the form.
type IndexResult struct {
	Score      int
	MaxScore   int
	Feedback   string
	Similarity float64
	Method     string
}

// IndexData is the view model of the grading form.
type IndexData struct {
	Reference string
	Student   string
	Result    *IndexResult
	Error     string
	Backend   string
}

// InitTemplates parses the embedded templates. It is safe to call more
// than once.
func InitTemplates() error {
	initOnce.Do(func() {
		index, initErr = template.New("index.html").Funcs(template.FuncMap{
			"pct": func(f float64) string { return fmt.Sprintf("%.2f", f) },
		}).ParseFS(files, "index.html")
	})
	return initErr
}

func RenderIndex(w io.Writer, data IndexData) error {
	if err := InitTemplates(); err != nil {
		return err
	}
	return index.Execute(w, data)
}
