package http

import (
	"net/http"
	"time"

	"github.com/quillfeed/quillfeed/pkg/authsdk"
	"github.com/quillfeed/quillfeed/pkg/httpx"
)

// LivezHandler is the liveness probe; it returns 200 whenever the process
// is up, regardless of dependency health.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		httpx.WriteJSON(w, http.StatusOK, response)
	}
}
