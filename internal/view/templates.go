package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rentaldesk/rentaldesk/internal/records"
	"github.com/rentaldesk/rentaldesk/internal/shared"
	"github.com/rentaldesk/rentaldesk/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Identity    *shared.Identity
	Data        any
}

// FieldView binds a form field to its current value and error.
type FieldView struct {
	Field records.Field
	Value string
	Error string
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"formatMoney": records.FormatMoney,
		"money":       moneyString,
		"lower":       strings.ToLower,
		"field":       fieldView,
		"noticeClass": func(kind string) string {
			switch kind {
			case "success", "warning", "error":
				return "notice notice-" + kind
			}
			return "notice"
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates(), "layouts/*.html", "partials/*.html", "pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// fieldView binds f to its value and error. Passwords are never echoed.
func fieldView(f records.Field, values, errs map[string]string) FieldView {
	fv := FieldView{Field: f, Value: values[f.Name], Error: errs[f.Name]}
	if f.Type == "password" {
		fv.Value = ""
	}
	return fv
}

func moneyString(raw string) string {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return records.FormatMoney(d)
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus is Render with an explicit status code.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
