package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"portal/internal/domain/users"
	"portal/internal/identity"
)

const maxPhotoBytes = 2 << 20 // 2 MB

type profileForm struct {
	FirstName string `form:"first_name" validate:"required,max=100"`
	LastName  string `form:"last_name" validate:"required,max=100"`
	Phone     string `form:"phone" validate:"omitempty,max=32"`
}

type profilePage struct {
	Profile      *users.Profile
	PhotoEnabled bool
}

func (app *application) profilePageHandler(w http.ResponseWriter, r *http.Request) {
	app.renderProfile(w, r, http.StatusOK, nil, nil)
}

func (app *application) renderProfile(w http.ResponseWriter, r *http.Request, status int, form *profileForm, errs map[string]string) {
	user, ok := identity.UserOf(getIdentity(r))
	if !ok {
		redirect(w, r, "/auth/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), users.QueryTimeoutDuration)
	defer cancel()

	p, err := app.store.Users.GetByID(ctx, user.ID)
	switch {
	case errors.Is(err, users.ErrNotFound):
		p = &users.Profile{ID: user.ID, Email: user.Email}
	case err != nil:
		app.serverError(w, r, err)
		return
	}

	if form == nil {
		form = &profileForm{FirstName: p.FirstName, LastName: p.LastName, Phone: deref(p.Phone)}
	}

	data := app.newTemplateData(r)
	data.Title = "Your profile"
	data.Form = *form
	if errs != nil {
		data.FieldErrors = errs
	}
	data.Data = profilePage{Profile: p, PhotoEnabled: app.media != nil}
	app.render(w, r, status, "profile.tmpl", data)
}

func (app *application) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.UserOf(getIdentity(r))
	if !ok {
		redirect(w, r, "/auth/login")
		return
	}

	if err := r.ParseForm(); err != nil {
		app.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	form := profileForm{
		FirstName: strings.TrimSpace(r.PostForm.Get("first_name")),
		LastName:  strings.TrimSpace(r.PostForm.Get("last_name")),
		Phone:     strings.TrimSpace(r.PostForm.Get("phone")),
	}
	if err := Validate.Struct(form); err != nil {
		app.renderProfile(w, r, http.StatusUnprocessableEntity, &form, fieldErrors(err))
		return
	}

	var phone *string
	if form.Phone != "" {
		phone = &form.Phone
	}

	if err := app.store.Users.UpdateDetails(r.Context(), user.ID, form.FirstName, form.LastName, phone); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			app.notFoundPage(w, r)
			return
		}
		app.serverError(w, r, err)
		return
	}

	redirect(w, r, "/dashboard/profile?notice=profile_saved")
}

// uploadProfilePhotoHandler stores a JPEG or PNG on the media CDN and
// records its URL. The previous photo is removed afterwards.
func (app *application) uploadProfilePhotoHandler(w http.ResponseWriter, r *http.Request) {
	if app.media == nil {
		app.featureUnavailable(w, r, "Photo upload")
		return
	}

	user, ok := identity.UserOf(getIdentity(r))
	if !ok {
		redirect(w, r, "/auth/login")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes+(64<<10))
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		app.renderError(w, r, http.StatusBadRequest, "Unable to read the upload, the size limit is 2MB.")
		return
	}

	file, fileHeader, err := r.FormFile("photo")
	if err != nil {
		app.renderError(w, r, http.StatusBadRequest, "Choose a photo to upload.")
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" {
		app.renderError(w, r, http.StatusBadRequest, "Only JPEG and PNG images are allowed.")
		return
	}

	photoURL, err := app.media.UploadProfilePhoto(r.Context(), file, user.ID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	previous, err := app.store.Users.SetPhoto(r.Context(), user.ID, photoURL)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if previous != nil && *previous != "" && *previous != photoURL {
		old := *previous
		app.background(func() {
			if err := app.media.Delete(context.Background(), old); err != nil {
				app.logger.Warnw("failed to delete previous profile photo", "user_id", user.ID, "error", err)
			}
		})
	}

	redirect(w, r, "/dashboard/profile?notice=photo_saved")
}
