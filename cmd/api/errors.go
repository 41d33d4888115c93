package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

// serverError renders the error page. Details are only shown outside
// production.
func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("page error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	message := "Something went wrong on our side. Please try again."
	if !app.config.production() {
		message = err.Error()
	}
	app.renderError(w, r, http.StatusInternalServerError, message)
}

func (app *application) notFoundPage(w http.ResponseWriter, r *http.Request) {
	app.renderError(w, r, http.StatusNotFound, "The page you were looking for does not exist.")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path, "ip", r.RemoteAddr)

	seconds := int(retryAfter.Round(time.Second).Seconds())
	w.Header().Set("Retry-After", strconv.Itoa(seconds))

	app.renderError(w, r, http.StatusTooManyRequests, fmt.Sprintf("Too many attempts. Try again in %d seconds.", seconds))
}

func (app *application) featureUnavailable(w http.ResponseWriter, r *http.Request, feature string) {
	app.renderError(w, r, http.StatusServiceUnavailable, feature+" is not available right now.")
}

// redirect always answers 303 so POST forms land on a GET.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
