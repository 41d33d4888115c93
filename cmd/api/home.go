package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"portal/internal/domain/accesscontrol"
	"portal/internal/identity"
)

// homeHandler routes the caller by identity: sign in, wait for a role, or
// go to the role's dashboard.
func (app *application) homeHandler(w http.ResponseWriter, r *http.Request) {
	switch id := getIdentity(r).(type) {
	case identity.Anonymous:
		redirect(w, r, "/auth/login")
	case identity.Unassigned:
		data := app.newTemplateData(r)
		data.Title = "Access pending"
		app.render(w, r, http.StatusOK, "home_pending.tmpl", data)
	case identity.Assigned:
		redirect(w, r, "/dashboard/"+string(id.Assignment.Role))
	}
}

// dashboardHandler forwards to the role dashboard and keeps the query so
// the access_denied marker survives the hop.
func (app *application) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	switch id := getIdentity(r).(type) {
	case identity.Anonymous:
		redirect(w, r, "/auth/login")
	case identity.Unassigned:
		redirect(w, r, "/")
	case identity.Assigned:
		target := "/dashboard/" + string(id.Assignment.Role)
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		redirect(w, r, target)
	}
}

type roleDashboard struct {
	Assignment accesscontrol.Assignment
	Links      []navLink
}

func (app *application) roleDashboardHandler(w http.ResponseWriter, r *http.Request) {
	requested := chi.URLParam(r, "role")

	switch id := getIdentity(r).(type) {
	case identity.Anonymous:
		redirect(w, r, "/auth/login")
	case identity.Unassigned:
		redirect(w, r, "/")
	case identity.Assigned:
		if string(id.Assignment.Role) != requested {
			redirect(w, r, "/dashboard?error=access_denied")
			return
		}

		data := app.newTemplateData(r)
		data.Title = label(id.Assignment.Role) + " dashboard"
		data.Data = roleDashboard{Assignment: id.Assignment, Links: data.Nav}
		app.render(w, r, http.StatusOK, "dashboard.tmpl", data)
	}
}
