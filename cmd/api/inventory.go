package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"portal/internal/domain/inventory"
	"portal/internal/params"
)

type inventoryPage struct {
	Items      []inventory.Item
	Pagination params.Pagination
	Search     string
	LowOnly    bool
}

type adjustForm struct {
	Delta int `form:"delta" validate:"ne=0,min=-100000,max=100000"`
}

func (app *application) inventoryPageHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := getAssigned(r)
	if !ok {
		redirect(w, r, "/")
		return
	}

	q := r.URL.Query()
	p := params.ParsePagination(q)
	filters := inventory.ListFilters{
		Search:       strings.TrimSpace(q.Get("search")),
		LowStockOnly: q.Get("low_stock") == "1",
	}

	ctx, cancel := context.WithTimeout(r.Context(), inventory.QueryTimeoutDuration)
	defer cancel()

	items, total, err := app.store.Inventory.List(ctx, a.Assignment.Scope(), filters, p.Limit, p.Offset)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.refs.Fill(items)
	p.ComputeMeta(total)

	data := app.newTemplateData(r)
	data.Title = "Inventory"
	data.Data = inventoryPage{
		Items:      items,
		Pagination: p,
		Search:     filters.Search,
		LowOnly:    filters.LowStockOnly,
	}
	app.render(w, r, http.StatusOK, "inventory.tmpl", data)
}

// adjustInventoryHandler applies a signed stock delta to one item inside
// the caller's scope.
func (app *application) adjustInventoryHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := getAssigned(r)
	if !ok {
		redirect(w, r, "/")
		return
	}

	id, err := app.refs.Decode(chi.URLParam(r, "ref"))
	if err != nil {
		app.notFoundPage(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		app.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}
	delta, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("delta")))
	if err != nil {
		app.renderError(w, r, http.StatusBadRequest, "Enter a whole number to adjust stock by.")
		return
	}
	form := adjustForm{Delta: delta}
	if err := Validate.Struct(form); err != nil {
		app.renderError(w, r, http.StatusBadRequest, fieldErrors(err)["delta"])
		return
	}

	item, err := app.store.Inventory.Adjust(r.Context(), a.Assignment.Scope(), id, form.Delta)
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		app.notFoundPage(w, r)
		return
	case errors.Is(err, inventory.ErrNegativeStock):
		redirect(w, r, "/dashboard/inventory?error=negative_stock")
		return
	case err != nil:
		app.serverError(w, r, err)
		return
	}

	app.logger.Infow("inventory adjusted",
		"user_id", a.User.ID,
		"item", app.refs.Encode(item.ID),
		"delta", form.Delta,
		"quantity", item.Quantity,
	)

	back := url.Values{"notice": {"adjusted"}}
	redirect(w, r, "/dashboard/inventory?"+back.Encode())
}
