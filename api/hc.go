package api

import (
	"net/http"
	"time"
)

func healthHandler(version string, uptime func() time.Duration) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"version": version,
			"uptime":  uptime().String(),
		})
	}

	return http.HandlerFunc(fn)
}
