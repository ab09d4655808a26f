package httpx

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jcmexdev/food-delivery/internal/frontend/core/domain/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pages = []string{
	"home", "register", "login", "select_location", "restaurants", "menu",
	"cart", "order", "orders", "order_details",
	"admin_login", "admin_dashboard",
	"restaurant_login", "restaurant_register", "restaurant_dashboard", "restaurant_menu",
}

var funcs = template.FuncMap{
	"money": entity.FormatMoney,
	"statusClass": func(s string) string {
		return "status-" + strings.ReplaceAll(strings.ToLower(s), "_", "-")
	},
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

// renderer holds one template set per page, each parsed together with the
// shared layout.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *renderer) render(w http.ResponseWriter, req *http.Request, status int, name string, data view) {
	t, ok := r.pages[name]
	if !ok {
		slog.ErrorContext(req.Context(), "unknown template", "template", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.ErrorContext(req.Context(), "render template failed", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
