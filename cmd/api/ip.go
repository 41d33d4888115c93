package main

import (
	"net/http"
	"strings"
)

type ipResponse struct {
	IP string `json:"ip"`
}

// clientIPFromHeaders trusts the forwarding headers as sent; behind a proxy
// that does not overwrite them the value can be spoofed.
func clientIPFromHeaders(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	return "unknown"
}

// getIPHandler godoc
//
//	@Summary		Report the client IP
//	@Description	Returns the first X-Forwarded-For address, else X-Real-IP, else "unknown".
//	@Tags			ops
//	@Produce		json
//	@Success		200	{object}	ipResponse
//	@Router			/get-ip [get]
func (app *application) getIPHandler(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, ipResponse{IP: clientIPFromHeaders(r)}); err != nil {
		app.internalServerError(w, r, err)
	}
}
