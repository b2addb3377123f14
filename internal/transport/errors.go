package transport

import (
	"encoding/json"
	"net/http"
	"time"

	"aquaquote/internal/apperr"
)

// errorEnvelope is the uniform shape every failure renders as, per §4.J.
type errorEnvelope struct {
	Code       apperr.Code `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode"`
	RequestID  string      `json:"requestId"`
	Path       string      `json:"path"`
	Timestamp  time.Time   `json:"timestamp"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.As(err)
	writeJSON(w, appErr.StatusCode(), errorEnvelope{
		Code:       appErr.Code,
		Message:    appErr.Message,
		StatusCode: appErr.StatusCode(),
		RequestID:  requestIDFromContext(r.Context()),
		Path:       r.URL.Path,
		Timestamp:  now(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// now is the single seam for the current time so handlers stay testable
// without monkeypatching time.Now directly.
var now = time.Now
