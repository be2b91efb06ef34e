package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/wisal-aid/coupon-service/internal/apperr"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders the error envelope. Anything outside the taxonomy is
// logged with its cause and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log *logrus.Logger, err error) {
	if apperr.KindOf(err) == apperr.Internal {
		log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("request failed")
	}
	body := apperr.EnvelopeFor(err, r.URL.Path)
	writeJSON(w, body.StatusCode, body)
}
