package main

import (
	"net/http"
	"runtime"

	"portal/internal/health"
)

type monitoringPage struct {
	Report     health.Report
	CPUs       int
	GoVersion  string
	Goroutines int
}

func (app *application) monitoringPageHandler(w http.ResponseWriter, r *http.Request) {
	report := app.health.Run(r.Context())

	data := app.newTemplateData(r)
	data.Title = "Monitoring"
	data.Data = monitoringPage{
		Report:     report,
		CPUs:       runtime.NumCPU(),
		GoVersion:  runtime.Version(),
		Goroutines: report.Memory.Goroutines,
	}
	app.render(w, r, http.StatusOK, "monitoring.tmpl", data)
}
