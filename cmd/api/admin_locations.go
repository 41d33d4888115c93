package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"portal/internal/domain/locations"
	"portal/internal/params"
)

type createLocationForm struct {
	RetailerID string `form:"retailer_id" validate:"required,uuid"`
	Name       string `form:"name" validate:"required,max=120"`
	Address    string `form:"address" validate:"omitempty,max=255"`
}

type locationsPage struct {
	Locations  []locations.Location
	Retailers  []locations.Retailer
	Pagination params.Pagination
}

func (app *application) adminLocationsPageHandler(w http.ResponseWriter, r *http.Request) {
	app.renderLocations(w, r, http.StatusOK, createLocationForm{}, nil)
}

func (app *application) renderLocations(w http.ResponseWriter, r *http.Request, status int, form createLocationForm, errs map[string]string) {
	p := params.ParsePagination(r.URL.Query())

	ctx, cancel := context.WithTimeout(r.Context(), locations.QueryTimeoutDuration)
	defer cancel()

	locs, total, err := app.store.Locations.List(ctx, p.Limit, p.Offset)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	retailers, err := app.store.Locations.ListRetailers(ctx)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	data := app.newTemplateData(r)
	data.Title = "Locations"
	data.Form = form
	if errs != nil {
		data.FieldErrors = errs
	}
	data.Data = locationsPage{Locations: locs, Retailers: retailers, Pagination: p}
	app.render(w, r, status, "admin_locations.tmpl", data)
}

func (app *application) adminCreateLocationHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	form := createLocationForm{
		RetailerID: r.PostForm.Get("retailer_id"),
		Name:       strings.TrimSpace(r.PostForm.Get("name")),
		Address:    strings.TrimSpace(r.PostForm.Get("address")),
	}
	if err := Validate.Struct(form); err != nil {
		app.renderLocations(w, r, http.StatusUnprocessableEntity, form, fieldErrors(err))
		return
	}

	loc := &locations.Location{
		RetailerID: uuid.MustParse(form.RetailerID),
		Name:       form.Name,
		IsActive:   true,
	}
	if form.Address != "" {
		loc.Address = &form.Address
	}

	if err := app.store.Locations.Create(r.Context(), loc); err != nil {
		if errors.Is(err, locations.ErrDuplicateName) {
			app.renderLocations(w, r, http.StatusUnprocessableEntity, form, map[string]string{"name": err.Error()})
			return
		}
		app.serverError(w, r, err)
		return
	}

	app.logger.Infow("location created", "location_id", loc.ID, "retailer_id", loc.RetailerID)
	redirect(w, r, "/dashboard/admin/locations?notice=location_added")
}

func (app *application) adminSetLocationActiveHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "locationID"))
	if err != nil {
		app.notFoundPage(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		app.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}
	active, err := strconv.ParseBool(r.PostForm.Get("active"))
	if err != nil {
		app.renderError(w, r, http.StatusBadRequest, "Invalid active flag.")
		return
	}

	if err := app.store.Locations.SetActive(r.Context(), id, active); err != nil {
		if errors.Is(err, locations.ErrNotFound) {
			app.notFoundPage(w, r)
			return
		}
		app.serverError(w, r, err)
		return
	}

	redirect(w, r, "/dashboard/admin/locations?notice=location_saved")
}
