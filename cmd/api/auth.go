package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"portal/internal/auth"
	"portal/internal/identity"
)

// authService is the subset of the hosted auth API the pages use.
type authService interface {
	SignInWithPassword(ctx context.Context, email, password string) (*auth.TokenResponse, error)
	RefreshSession(ctx context.Context, refreshToken string) (*auth.TokenResponse, error)
	SignUp(ctx context.Context, email, password, redirectTo string) error
	Recover(ctx context.Context, email, redirectTo string) error
	VerifyOTP(ctx context.Context, tokenHash, otpType string) (*auth.TokenResponse, error)
	UpdatePassword(ctx context.Context, accessToken, password string) error
	Logout(ctx context.Context, accessToken string) error
	GenerateInviteLink(ctx context.Context, email, redirectTo string) (*auth.GeneratedLink, error)
}

type loginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type signUpForm struct {
	Email          string `form:"email" validate:"required,email"`
	Password       string `form:"password" validate:"required,min=8,max=72"`
	RepeatPassword string `form:"repeat_password" validate:"required,eqfield=Password"`
}

type resetPasswordForm struct {
	Email string `form:"email" validate:"required,email"`
}

type updatePasswordForm struct {
	Password       string `form:"password" validate:"required,min=8,max=72"`
	RepeatPassword string `form:"repeat_password" validate:"required,eqfield=Password"`
}

type setupAccountForm struct {
	FirstName      string `form:"first_name" validate:"required,max=100"`
	LastName       string `form:"last_name" validate:"required,max=100"`
	Phone          string `form:"phone" validate:"omitempty,max=32"`
	Password       string `form:"password" validate:"required,min=8,max=72"`
	RepeatPassword string `form:"repeat_password" validate:"required,eqfield=Password"`
}

func signedIn(r *http.Request) bool {
	_, anonymous := getIdentity(r).(identity.Anonymous)
	return !anonymous
}

func (app *application) renderForm(w http.ResponseWriter, r *http.Request, status int, page, title string, form any, errs map[string]string) {
	data := app.newTemplateData(r)
	data.Title = title
	data.Form = form
	if errs != nil {
		data.FieldErrors = errs
	}
	app.render(w, r, status, page, data)
}

func (app *application) checkEmail(w http.ResponseWriter, r *http.Request, message string) {
	data := app.newTemplateData(r)
	data.Title = "Check your email"
	data.Data = message
	app.render(w, r, http.StatusOK, "check_email.tmpl", data)
}

func (app *application) loginPageHandler(w http.ResponseWriter, r *http.Request) {
	if signedIn(r) {
		redirect(w, r, "/")
		return
	}
	app.renderForm(w, r, http.StatusOK, "login.tmpl", "Sign in", loginForm{}, nil)
}

func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	form := loginForm{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	if err := Validate.Struct(form); err != nil {
		form.Password = ""
		app.renderForm(w, r, http.StatusUnprocessableEntity, "login.tmpl", "Sign in", form, fieldErrors(err))
		return
	}

	session, err := app.auth.SignInWithPassword(r.Context(), form.Email, form.Password)
	if err != nil {
		if auth.IsInvalidCredentials(err) {
			form.Password = ""
			app.renderForm(w, r, http.StatusUnprocessableEntity, "login.tmpl", "Sign in", form,
				map[string]string{"form": "Invalid email or password."})
			return
		}
		app.serverError(w, r, err)
		return
	}

	app.setAuthCookies(w, session)
	app.logger.Infow("user signed in", "user_id", session.User.ID)

	redirect(w, r, "/")
}

func (app *application) signUpPageHandler(w http.ResponseWriter, r *http.Request) {
	if signedIn(r) {
		redirect(w, r, "/")
		return
	}
	app.renderForm(w, r, http.StatusOK, "sign_up.tmpl", "Create an account", signUpForm{}, nil)
}

func (app *application) signUpHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	form := signUpForm{
		Email:          strings.TrimSpace(r.PostForm.Get("email")),
		Password:       r.PostForm.Get("password"),
		RepeatPassword: r.PostForm.Get("repeat_password"),
	}
	if err := Validate.Struct(form); err != nil {
		form.Password, form.RepeatPassword = "", ""
		app.renderForm(w, r, http.StatusUnprocessableEntity, "sign_up.tmpl", "Create an account", form, fieldErrors(err))
		return
	}

	if err := app.auth.SignUp(r.Context(), form.Email, form.Password, app.config.siteURL+"/"); err != nil {
		var apiErr *auth.APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			form.Password, form.RepeatPassword = "", ""
			app.renderForm(w, r, http.StatusUnprocessableEntity, "sign_up.tmpl", "Create an account", form,
				map[string]string{"form": apiErr.Message})
			return
		}
		app.serverError(w, r, err)
		return
	}

	app.checkEmail(w, r, "We sent you a confirmation link. Open it to activate your account.")
}

func (app *application) resetPasswordPageHandler(w http.ResponseWriter, r *http.Request) {
	app.renderForm(w, r, http.StatusOK, "reset_password.tmpl", "Reset your password", resetPasswordForm{}, nil)
}

func (app *application) resetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	form := resetPasswordForm{Email: strings.TrimSpace(r.PostForm.Get("email"))}
	if err := Validate.Struct(form); err != nil {
		app.renderForm(w, r, http.StatusUnprocessableEntity, "reset_password.tmpl", "Reset your password", form, fieldErrors(err))
		return
	}

	// The answer is the same whether or not the address has an account.
	if err := app.auth.Recover(r.Context(), form.Email, app.config.siteURL+"/auth/update-password"); err != nil {
		var apiErr *auth.APIError
		if !errors.As(err, &apiErr) {
			app.serverError(w, r, err)
			return
		}
		app.logger.Warnw("password recovery rejected", "status", apiErr.Status, "code", apiErr.Code)
	}

	app.checkEmail(w, r, "If an account exists for that address, a password reset link is on its way.")
}

// exchangeEmailLink verifies the token_hash carried by an emailed link and
// starts a session. It reports whether the request was handled.
func (app *application) exchangeEmailLink(w http.ResponseWriter, r *http.Request, otpType, page, title string, form any) bool {
	q := r.URL.Query()
	tokenHash := q.Get("token_hash")
	if tokenHash == "" {
		return false
	}

	if q.Get("type") != otpType {
		app.renderForm(w, r, http.StatusBadRequest, page, title, form,
			map[string]string{"form": "This link is not valid for this page."})
		return true
	}

	session, err := app.auth.VerifyOTP(r.Context(), tokenHash, otpType)
	if err != nil {
		if auth.IsInvalidCredentials(err) {
			app.renderForm(w, r, http.StatusBadRequest, page, title, form,
				map[string]string{"form": "This link is invalid or has expired."})
			return true
		}
		app.serverError(w, r, err)
		return true
	}

	app.setAuthCookies(w, session)
	redirect(w, r, r.URL.Path)
	return true
}

func (app *application) updatePasswordPageHandler(w http.ResponseWriter, r *http.Request) {
	const title = "Choose a new password"
	if app.exchangeEmailLink(w, r, "recovery", "update_password.tmpl", title, updatePasswordForm{}) {
		return
	}
	if !signedIn(r) {
		redirect(w, r, "/auth/login")
		return
	}
	app.renderForm(w, r, http.StatusOK, "update_password.tmpl", title, updatePasswordForm{}, nil)
}

func (app *application) updatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	const title = "Choose a new password"

	token := getSessionToken(r)
	if token == "" {
		redirect(w, r, "/auth/login")
		return
	}

	if err := r.ParseForm(); err != nil {
		app.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	form := updatePasswordForm{
		Password:       r.PostForm.Get("password"),
		RepeatPassword: r.PostForm.Get("repeat_password"),
	}
	if err := Validate.Struct(form); err != nil {
		app.renderForm(w, r, http.StatusUnprocessableEntity, "update_password.tmpl", title, updatePasswordForm{}, fieldErrors(err))
		return
	}

	if err := app.auth.UpdatePassword(r.Context(), token, form.Password); err != nil {
		var apiErr *auth.APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			app.renderForm(w, r, http.StatusUnprocessableEntity, "update_password.tmpl", title, updatePasswordForm{},
				map[string]string{"form": apiErr.Message})
			return
		}
		app.serverError(w, r, err)
		return
	}

	redirect(w, r, "/?notice=password_saved")
}

func (app *application) setupAccountPageHandler(w http.ResponseWriter, r *http.Request) {
	const title = "Set up your account"
	if app.exchangeEmailLink(w, r, "invite", "setup_account.tmpl", title, setupAccountForm{}) {
		return
	}

	user, ok := identity.UserOf(getIdentity(r))
	if !ok {
		redirect(w, r, "/auth/login")
		return
	}

	form := setupAccountForm{}
	if p, err := app.store.Users.GetByID(r.Context(), user.ID); err == nil {
		form.FirstName, form.LastName, form.Phone = p.FirstName, p.LastName, deref(p.Phone)
	}
	app.renderForm(w, r, http.StatusOK, "setup_account.tmpl", title, form, nil)
}

func (app *application) setupAccountHandler(w http.ResponseWriter, r *http.Request) {
	const title = "Set up your account"

	user, ok := identity.UserOf(getIdentity(r))
	token := getSessionToken(r)
	if !ok || token == "" {
		redirect(w, r, "/auth/login")
		return
	}

	if err := r.ParseForm(); err != nil {
		app.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	form := setupAccountForm{
		FirstName:      strings.TrimSpace(r.PostForm.Get("first_name")),
		LastName:       strings.TrimSpace(r.PostForm.Get("last_name")),
		Phone:          strings.TrimSpace(r.PostForm.Get("phone")),
		Password:       r.PostForm.Get("password"),
		RepeatPassword: r.PostForm.Get("repeat_password"),
	}
	if err := Validate.Struct(form); err != nil {
		form.Password, form.RepeatPassword = "", ""
		app.renderForm(w, r, http.StatusUnprocessableEntity, "setup_account.tmpl", title, form, fieldErrors(err))
		return
	}

	if err := app.auth.UpdatePassword(r.Context(), token, form.Password); err != nil {
		app.serverError(w, r, err)
		return
	}

	var phone *string
	if form.Phone != "" {
		phone = &form.Phone
	}
	if err := app.store.Users.UpdateDetails(r.Context(), user.ID, form.FirstName, form.LastName, phone); err != nil {
		app.serverError(w, r, err)
		return
	}

	app.logger.Infow("account set up", "user_id", user.ID)
	redirect(w, r, "/")
}

func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if token := getSessionToken(r); token != "" {
		if err := app.auth.Logout(r.Context(), token); err != nil {
			app.logger.Warnw("failed to revoke session on logout", "error", err)
		}
	}

	// Always clear cookies
	app.clearAuthCookies(w)

	redirect(w, r, "/auth/login")
}
