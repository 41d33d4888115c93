package main

import (
	"context"
	"net/http"
	"strings"

	"portal/internal/domain/accesscontrol"
	"portal/internal/domain/users"
	"portal/internal/params"
)

type peoplePage struct {
	People     []users.Profile
	Pagination params.Pagination
	Search     string
	Role       string
	Roles      []accesscontrol.RoleName
}

// listPeople reads one page of profiles for the staff and admin user pages.
func (app *application) listPeople(r *http.Request, scope accesscontrol.Scope) (peoplePage, error) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	filters := users.ListFilters{
		Search: strings.TrimSpace(q.Get("search")),
	}
	if role, err := accesscontrol.ParseRole(q.Get("role")); err == nil {
		filters.Role = string(role)
	}

	ctx, cancel := context.WithTimeout(r.Context(), users.QueryTimeoutDuration)
	defer cancel()

	people, total, err := app.store.Users.List(ctx, scope, filters, p.Limit, p.Offset)
	if err != nil {
		return peoplePage{}, err
	}
	p.ComputeMeta(total)

	return peoplePage{
		People:     people,
		Pagination: p,
		Search:     filters.Search,
		Role:       filters.Role,
		Roles:      accesscontrol.Roles,
	}, nil
}

func (app *application) staffPageHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := getAssigned(r)
	if !ok {
		redirect(w, r, "/")
		return
	}

	page, err := app.listPeople(r, a.Assignment.Scope())
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	data := app.newTemplateData(r)
	data.Title = "Staff"
	data.Data = page
	app.render(w, r, http.StatusOK, "staff.tmpl", data)
}
