package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/devmarkh/converso/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a rejection to its HTTP status. Internal errors are logged
// and masked; taxonomy errors carry their own message.
func writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logrus.WithError(err).Error("request failed")
		msg = "internal server error"
	}
	http.Error(w, msg, status)
}
