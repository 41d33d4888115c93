package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"portal/internal/auth"
	"portal/internal/domain/accesscontrol"
	"portal/internal/domain/locations"
	"portal/internal/domain/storage"
	"portal/internal/domain/users"
	"portal/internal/mailer"
)

type createUserForm struct {
	Email      string `form:"email" validate:"required,email,max=255"`
	FirstName  string `form:"first_name" validate:"required,max=100"`
	LastName   string `form:"last_name" validate:"required,max=100"`
	Role       string `form:"role" validate:"required,role"`
	SubRole    string `form:"sub_role" validate:"omitempty,max=64"`
	RetailerID string `form:"retailer_id" validate:"omitempty,uuid"`
	LocationID string `form:"location_id" validate:"omitempty,uuid"`
}

type createUserPage struct {
	Roles     []accesscontrol.RoleName
	Retailers []locations.Retailer
	Locations []locations.Location
}

// invitationData feeds the user_invitation email template.
type invitationData struct {
	AppName  string
	Username string
	Role     string
	SetupURL string
}

const invitationLookupLimit = 200

func (app *application) adminUsersPageHandler(w http.ResponseWriter, r *http.Request) {
	page, err := app.listPeople(r, accesscontrol.Scope{})
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	data := app.newTemplateData(r)
	data.Title = "Users"
	data.Data = page
	app.render(w, r, http.StatusOK, "admin_users.tmpl", data)
}

func (app *application) adminCreateUserPageHandler(w http.ResponseWriter, r *http.Request) {
	app.renderCreateUser(w, r, http.StatusOK, createUserForm{}, nil)
}

func (app *application) renderCreateUser(w http.ResponseWriter, r *http.Request, status int, form createUserForm, errs map[string]string) {
	ctx, cancel := context.WithTimeout(r.Context(), locations.QueryTimeoutDuration)
	defer cancel()

	retailers, err := app.store.Locations.ListRetailers(ctx)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	locs, _, err := app.store.Locations.List(ctx, invitationLookupLimit, 0)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	data := app.newTemplateData(r)
	data.Title = "Invite a user"
	data.Form = form
	if errs != nil {
		data.FieldErrors = errs
	}
	data.Data = createUserPage{Roles: accesscontrol.Roles, Retailers: retailers, Locations: locs}
	app.render(w, r, status, "admin_user_create.tmpl", data)
}

// adminCreateUserHandler invites a user through the auth admin API, records
// the profile, role and location link in one transaction, then emails the
// setup-account link.
func (app *application) adminCreateUserHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := getAssigned(r)
	if !ok {
		redirect(w, r, "/")
		return
	}

	if err := r.ParseForm(); err != nil {
		app.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	form := createUserForm{
		Email:      strings.ToLower(strings.TrimSpace(r.PostForm.Get("email"))),
		FirstName:  strings.TrimSpace(r.PostForm.Get("first_name")),
		LastName:   strings.TrimSpace(r.PostForm.Get("last_name")),
		Role:       r.PostForm.Get("role"),
		SubRole:    strings.TrimSpace(r.PostForm.Get("sub_role")),
		RetailerID: r.PostForm.Get("retailer_id"),
		LocationID: r.PostForm.Get("location_id"),
	}
	if err := Validate.Struct(form); err != nil {
		app.renderCreateUser(w, r, http.StatusUnprocessableEntity, form, fieldErrors(err))
		return
	}

	assignment := accesscontrol.Assignment{
		Role:       accesscontrol.RoleName(form.Role),
		RetailerID: parseOptionalUUID(form.RetailerID),
		LocationID: parseOptionalUUID(form.LocationID),
	}
	if form.SubRole != "" {
		assignment.SubRole = &form.SubRole
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	link, err := app.auth.GenerateInviteLink(ctx, form.Email, app.config.siteURL+"/auth/setup-account")
	if err != nil {
		var apiErr *auth.APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			app.renderCreateUser(w, r, http.StatusUnprocessableEntity, form, map[string]string{"email": apiErr.Message})
			return
		}
		app.serverError(w, r, err)
		return
	}

	assignment.UserID = link.ID
	profile := &users.Profile{
		ID:        link.ID,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
	}

	err = app.accounts.WithAccountTx(ctx, func(tx *storage.AccountTx) error {
		if err := tx.Users.Upsert(ctx, profile); err != nil {
			return err
		}
		if err := tx.AccessControl.Upsert(ctx, &assignment); err != nil {
			return err
		}
		if assignment.LocationID != nil {
			return tx.Users.AddLocation(ctx, profile.ID, *assignment.LocationID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			app.renderCreateUser(w, r, http.StatusUnprocessableEntity, form, map[string]string{"email": err.Error()})
			return
		}
		app.serverError(w, r, err)
		return
	}

	app.logger.Infow("user invited",
		"by", admin.User.ID,
		"user_id", profile.ID,
		"role", assignment.Role,
	)

	app.sendInvitation(profile, assignment.Role, link.HashedToken)

	redirect(w, r, "/dashboard/admin/users?notice=invited")
}

func (app *application) setupAccountURL(tokenHash string) string {
	q := url.Values{"token_hash": {tokenHash}, "type": {"invite"}}
	return fmt.Sprintf("%s/auth/setup-account?%s", app.config.siteURL, q.Encode())
}

func (app *application) sendInvitation(p *users.Profile, role accesscontrol.RoleName, tokenHash string) {
	if app.mailer == nil {
		app.logger.Warnw("invitation email not sent, mailer not configured", "user_id", p.ID)
		return
	}

	data := invitationData{
		AppName:  mailer.FromName,
		Username: p.FullName(),
		Role:     label(role),
		SetupURL: app.setupAccountURL(tokenHash),
	}

	app.background(func() {
		attempt, err := app.mailer.Send(mailer.UserInvitationTemplate, p.FullName(), p.Email, data)
		if err != nil {
			app.logger.Errorw("error sending invitation email", "user_id", p.ID, "error", err)
			return
		}
		app.logger.Infow("invitation email sent", "user_id", p.ID, "attempt", attempt)
	})
}

func parseOptionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
