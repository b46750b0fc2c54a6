package api

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"path/filepath"

	"parkhub/internal/auth"
)

const flashCookie = "parkhub_flash"

// Renderer parses the page templates once and renders them against the
// shared layout.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses every page template in dir against layout.html.
func NewRenderer(dir string) (*Renderer, error) {
	layout := filepath.Join(dir, "layout.html")
	pages, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("globbing templates: %w", err)
	}
	templates := make(map[string]*template.Template)
	for _, page := range pages {
		name := filepath.Base(page)
		if name == "layout.html" {
			continue
		}
		tmpl, err := template.ParseFiles(layout, page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		templates[name] = tmpl
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("no page templates found in %s", dir)
	}
	return &Renderer{templates: templates}, nil
}

// ViewData is the payload every page template receives.
type ViewData struct {
	Session auth.Session
	Flash   string
	Data    interface{}
}

// Render writes the named page. The flash cookie, if any, is consumed.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	tmpl, ok := rd.templates[name]
	if !ok {
		log.Printf("Render: unknown template %s", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	session, _ := auth.SessionFromContext(r.Context())
	view := ViewData{
		Session: session,
		Flash:   PopFlash(w, r),
		Data:    data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", view); err != nil {
		log.Printf("Render: executing %s: %v", name, err)
	}
}

// SetFlash stores a one-shot message shown on the next page load.
func SetFlash(w http.ResponseWriter, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash reads and clears the flash cookie.
func PopFlash(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	message, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return message
}
