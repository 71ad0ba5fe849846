package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"paintledger/internal/history"
	"paintledger/internal/models"
)

// History is the record surface used by the analysis and history routes.
type History interface {
	Save(ctx context.Context, body map[string]json.RawMessage) (string, error)
	List(ctx context.Context, username string) ([]history.Summary, error)
	Detail(ctx context.Context, id string) (*models.AnalysisRecord, error)
	Delete(ctx context.Context, id string) error
}

// SaveAnalysis stores the body as a new record. The record store write is
// independent of the credential store; the owner is not required to exist.
func SaveAnalysis(svc History, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondStatus(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
			return
		}
		id, err := svc.Save(r.Context(), body)
		if err != nil {
			status, _ := failure(lg, "save analysis failed", err)
			respondStatus(w, status, map[string]any{"success": false, "error": "save failed"})
			return
		}
		respondJSON(w, map[string]any{"success": true, "insertedId": id})
	}
}

// ListHistory answers a store failure with 500 and an empty array body.
func ListHistory(svc History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), r.URL.Query().Get("username"))
		if err != nil {
			respondStatus(w, http.StatusInternalServerError, []history.Summary{})
			return
		}
		respondJSON(w, list)
	}
}

func HistoryDetail(svc History, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Detail(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			status, msg := failure(lg, "history detail failed", err)
			respondStatus(w, status, map[string]string{"error": msg})
			return
		}
		respondJSON(w, rec)
	}
}

func DeleteHistory(svc History, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			status, msg := failure(lg, "history delete failed", err)
			respondStatus(w, status, map[string]any{"success": false, "error": msg})
			return
		}
		respondJSON(w, map[string]bool{"success": true})
	}
}
