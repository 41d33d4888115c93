package main

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"portal/internal/domain/accesscontrol"
	"portal/internal/identity"
)

//go:embed "templates"
var templateFS embed.FS

type templateCache map[string]*template.Template

type navLink struct {
	Label string
	Href  string
}

type templateData struct {
	Title       string
	User        *identity.User
	Role        accesscontrol.RoleName
	Pending     bool
	Nav         []navLink
	Notice      string
	Error       string
	Form        any
	FieldErrors map[string]string
	Data        any
	CurrentYear int
}

type errorPage struct {
	Status  int
	Message string
}

// navItems is the menu order. Entries are shown only when the route policy
// allows the caller's role.
var navItems = []struct {
	resource accesscontrol.Resource
	link     navLink
}{
	{accesscontrol.ResourceInventory, navLink{"Inventory", "/dashboard/inventory"}},
	{accesscontrol.ResourceReports, navLink{"Reports", "/dashboard/reports"}},
	{accesscontrol.ResourceSchedule, navLink{"Schedule", "/dashboard/schedule"}},
	{accesscontrol.ResourceStaff, navLink{"Staff", "/dashboard/staff"}},
	{accesscontrol.ResourceAdminUsers, navLink{"Users", "/dashboard/admin/users"}},
	{accesscontrol.ResourceAdminLocations, navLink{"Locations", "/dashboard/admin/locations"}},
	{accesscontrol.ResourceAdminMonitoring, navLink{"Monitoring", "/admin/monitoring"}},
	{accesscontrol.ResourceProfile, navLink{"Profile", "/dashboard/profile"}},
}

var notices = map[string]string{
	"adjusted":       "Stock level updated.",
	"invited":        "Invitation sent.",
	"location_added": "Location created.",
	"location_saved": "Location updated.",
	"profile_saved":  "Profile saved.",
	"photo_saved":    "Profile photo updated.",
	"password_saved": "Password updated.",
}

var pageErrors = map[string]string{
	"access_denied":  "You do not have access to that page.",
	"negative_stock": "That adjustment would take stock below zero.",
}

var functions = template.FuncMap{
	"humanDate": humanDate,
	"deref":     deref,
	"label":     label,
	"hours": func(d time.Duration) string {
		return fmt.Sprintf("%.1f", d.Hours())
	},
}

func humanDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006 15:04")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// label turns identifiers such as "department_head" into "Department head".
func label(v any) string {
	s := strings.ReplaceAll(fmt.Sprint(v), "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func newTemplateCache() (templateCache, error) {
	cache := templateCache{}

	pages, err := fs.Glob(templateFS, "templates/pages/*.tmpl")
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		name := path.Base(page)

		ts, err := template.New(name).Funcs(functions).ParseFS(templateFS, "templates/base.tmpl", page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		cache[name] = ts
	}

	return cache, nil
}

func (app *application) newTemplateData(r *http.Request) templateData {
	data := templateData{
		CurrentYear: time.Now().Year(),
		FieldErrors: map[string]string{},
	}

	q := r.URL.Query()
	data.Notice = notices[q.Get("notice")]
	data.Error = pageErrors[q.Get("error")]

	id := getIdentity(r)
	user, signedIn := identity.UserOf(id)
	if !signedIn {
		return data
	}
	data.User = &user

	role, ok := identity.Role(id)
	if !ok {
		data.Pending = true
		return data
	}
	data.Role = role
	for _, item := range navItems {
		if app.policy.Allowed(role, item.resource) {
			data.Nav = append(data.Nav, item.link)
		}
	}

	return data
}

// render executes into a buffer first so a template failure becomes an
// error page instead of a half-written response.
func (app *application) render(w http.ResponseWriter, r *http.Request, status int, page string, data templateData) {
	buf, err := app.execute(page, data)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (app *application) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := app.newTemplateData(r)
	data.Title = http.StatusText(status)
	data.Data = errorPage{Status: status, Message: message}

	buf, err := app.execute("error.tmpl", data)
	if err != nil {
		app.logger.Errorw("render error page", "error", err)
		http.Error(w, message, status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (app *application) execute(page string, data templateData) (*bytes.Buffer, error) {
	ts, ok := app.templates[page]
	if !ok {
		return nil, fmt.Errorf("the template %s does not exist", page)
	}

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", data); err != nil {
		return nil, err
	}
	return buf, nil
}
