package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
)

var (
	//go:embed templates/*
	templateFiles embed.FS

	//go:embed static/*
	staticFiles embed.FS
)

func TemplateFilesFS() fs.FS {
	return mustSub(templateFiles, "templates")
}

// StaticFilesFS is rooted so that request paths map directly onto files, e.g. /css/dashboard.css.
func StaticFilesFS() fs.FS {
	return mustSub(staticFiles, "static")
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	subFS, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(fmt.Sprintf("Failed to create %s sub filesystem: %v", dir, err))
	}
	return subFS
}

// ParseTemplate parses a template from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	content, err := fs.ReadFile(TemplateFilesFS(), name)
	if err != nil {
		return nil, err
	}
	return template.New(name).Funcs(templateFuncs).Parse(string(content))
}

var templateFuncs = template.FuncMap{
	"minutes": formatMinutes,
}

// staticFileHandler serves the embedded stylesheets.
func staticFileHandler() http.HandlerFunc {
	return http.FileServerFS(StaticFilesFS()).ServeHTTP
}
