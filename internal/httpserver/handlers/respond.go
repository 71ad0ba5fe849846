package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"paintledger/internal/apperr"
)

func respondJSON(w http.ResponseWriter, v interface{}) {
	respondStatus(w, http.StatusOK, v)
}

func respondStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// failure logs unexpected errors and returns the status and client-safe
// message for err.
func failure(lg *zap.SugaredLogger, msg string, err error) (int, string) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		lg.Errorw(msg, "error", err)
	}
	return status, apperr.Message(err)
}
