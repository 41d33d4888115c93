package main

import (
	"context"
	"net/http"
	"time"

	"portal/internal/domain/schedules"
)

const scheduleWindow = 7 * 24 * time.Hour

type schedulePage struct {
	From time.Time
	To   time.Time
	Days []schedules.Day
	Mine []schedules.Shift
}

// schedulePageHandler lists the shifts starting from today through the next
// seven days within the caller's scope, plus the caller's own shifts.
func (app *application) schedulePageHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := getAssigned(r)
	if !ok {
		redirect(w, r, "/")
		return
	}

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.Add(scheduleWindow)

	ctx, cancel := context.WithTimeout(r.Context(), schedules.QueryTimeoutDuration)
	defer cancel()

	shifts, err := app.store.Schedules.ListBetween(ctx, a.Assignment.Scope(), from, to)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	mine, err := app.store.Schedules.ListForUser(ctx, a.User.ID, from, to)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	data := app.newTemplateData(r)
	data.Title = "Schedule"
	data.Data = schedulePage{
		From: from,
		To:   to,
		Days: schedules.GroupByDay(shifts, now.Location()),
		Mine: mine,
	}
	app.render(w, r, http.StatusOK, "schedule.tmpl", data)
}
