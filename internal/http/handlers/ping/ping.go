// Package ping answers the connectivity check used by the frontend.
package ping

import (
	"net/http"

	"github.com/aanand-mishra/smart-umis-api/internal/utils/response"
)

// New handles GET /api/ping.
func New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, response.Message("Backend is connected!"))
	}
}
