// neurodvach/handlers/render.go

package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"neurodvach/config"
	"neurodvach/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var (
	templates *template.Template
)

// LoadTemplates parses the embedded HTML templates.
func LoadTemplates() error {
	funcMap := template.FuncMap{
		"formatTime": func(t time.Time) string { return t.Local().Format("02/01/06 15:04:05") },
		"formatISO":  func(t time.Time) string { return t.Format(time.RFC3339) },
		"truncate": func(max int, s string) string {
			runes := []rune(s)
			if len(runes) > max {
				return string(runes[:max]) + "..."
			}
			return s
		},
		"authorClass": func(p models.Post) string {
			if p.IsAI() {
				return "post-ai"
			}
			return "post-user"
		},
		"seq": func(from, to int) []int {
			var out []int
			for i := from; i <= to; i++ {
				out = append(out, i)
			}
			return out
		},
	}
	t, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	templates = t
	return nil
}

// staticHandler serves the embedded assets under /static/.
func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// render executes the content template inside the layout with status 200.
func render(w http.ResponseWriter, r *http.Request, app App, layout, contentTmpl string, data map[string]interface{}) {
	renderStatus(w, r, app, http.StatusOK, layout, contentTmpl, data)
}

func renderStatus(w http.ResponseWriter, r *http.Request, app App, status int, layout, contentTmpl string, data map[string]interface{}) {
	if data == nil {
		data = make(map[string]interface{})
	}

	data["AppName"] = config.AppName
	data["AppVersion"] = config.AppVersion
	if _, ok := data["GlobalBoards"]; !ok {
		boards, err := app.DB().ListBoards(r.Context())
		if err != nil {
			app.Logger().Error("Failed to load board list for navigation", "error", err)
		}
		data["GlobalBoards"] = boards
	}
	if csrfToken, ok := r.Context().Value(CSRFTokenKey).(string); ok {
		data["csrfToken"] = csrfToken
	}

	contentBuf := new(bytes.Buffer)
	if err := templates.ExecuteTemplate(contentBuf, contentTmpl, data); err != nil {
		app.Logger().Error("Error rendering content template", "template", contentTmpl, "error", err)
		http.Error(w, "Failed to render page content", http.StatusInternalServerError)
		return
	}
	data["Content"] = template.HTML(contentBuf.String())

	page := new(bytes.Buffer)
	if err := templates.ExecuteTemplate(page, layout, data); err != nil {
		app.Logger().Error("Error rendering layout template", "template", layout, "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := page.WriteTo(w); err != nil {
		app.Logger().Warn("Failed to write page", "error", err)
	}
}

// renderError shows a short message page with the given status.
func renderError(w http.ResponseWriter, r *http.Request, app App, status int, message string) {
	renderStatus(w, r, app, status, "layout.html", "error.html", map[string]interface{}{
		"Title":   fmt.Sprintf("%d", status),
		"Status":  status,
		"Message": message,
	})
}
