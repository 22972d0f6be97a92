package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages holds one parsed template set per page, each sharing the layout
var pages = map[string]*template.Template{
	"landing":   template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/landing.html")),
	"dashboard": template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/dashboard.html")),
}

// renderPage executes a page into a buffer first so a template error never produces a half-written response
func renderPage(w http.ResponseWriter, logger *zap.Logger, page string, data any) {
	tmpl, ok := pages[page]
	if !ok {
		logger.Error("unknown_page_template", zap.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.Error("page_render_failed", zap.String("page", page), zap.Error(fmt.Errorf("failed to execute template: %w", err)))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
