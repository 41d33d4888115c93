package main

import (
	"context"
	"net/http"
	"time"

	"portal/internal/domain/reports"
)

type reportsPage struct {
	Summary    *reports.Summary
	ByLocation []reports.LocationRow
}

func (app *application) reportsPageHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := getAssigned(r)
	if !ok {
		redirect(w, r, "/")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	now := time.Now()
	scope := a.Assignment.Scope()

	summary, err := app.store.Reports.GetSummary(ctx, scope, now)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	rows, err := app.store.Reports.ByLocation(ctx, scope, now)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	data := app.newTemplateData(r)
	data.Title = "Reports"
	data.Data = reportsPage{Summary: summary, ByLocation: rows}
	app.render(w, r, http.StatusOK, "reports.tmpl", data)
}
