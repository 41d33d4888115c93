package main

import (
	"net/http"
)

// healthCheckHandler godoc
//
//	@Summary		Health check
//	@Description	Times one database read. Healthy when the read succeeds in under 1000ms.
//	@Tags			ops
//	@Produce		json
//	@Success		200	{object}	health.Report
//	@Failure		503	{object}	health.Report
//	@Router			/health [get]
func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	report := app.health.Run(r.Context())

	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
		app.logger.Warnw("health check failed",
			"db_status", report.Checks.Database.Status,
			"db_ms", report.Checks.Database.ResponseTime,
			"error", report.Checks.Database.Error,
		)
	}

	w.Header().Set("Cache-Control", "no-store")
	if err := writeJSON(w, status, report); err != nil {
		app.internalServerError(w, r, err)
	}
}
