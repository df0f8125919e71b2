package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/lookbook/internal/feedback"
	"github.com/kalambet/lookbook/internal/intel"
)

type FeedbackRequest struct {
	SubjectID string `json:"subject_id" validate:"required,max=128"`
	Kind      string `json:"kind" validate:"required,oneof=like dislike"`
	Reason    string `json:"reason,omitempty" validate:"omitempty,oneof=fit color weather vibe"`
}

type FeedbackResponse struct {
	Record         feedback.Record `json:"record"`
	Acknowledgment string          `json:"acknowledgment"`
}

func handleRecordFeedback(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FeedbackRequest
		if !decodeBody(w, r, &req) {
			return
		}
		kind, err := feedback.ParseKind(req.Kind)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		var reason feedback.Reason
		if kind == feedback.Dislike && req.Reason != "" {
			if reason, err = feedback.ParseReason(req.Reason); err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
				return
			}
		}

		rec, ok := deps.Ledger.RecordFeedback(r.Context(), req.SubjectID, kind, reason)
		if !ok {
			httpError(w, http.StatusInternalServerError, "api_error", "feedback could not be saved")
			return
		}
		writeJSON(w, http.StatusCreated, FeedbackResponse{
			Record:         *rec,
			Acknowledgment: intel.ImmediateAcknowledgment(kind),
		})
	}
}

func handleListFeedback(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Ledger.All(r.Context()))
	}
}

func handleGetFeedback(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "subjectID")
		rec, ok := deps.Ledger.FeedbackFor(r.Context(), id)
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "no feedback for subject %q", id)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func handleFeedbackStats(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Ledger.Stats(r.Context()))
	}
}

func handleResetFeedback(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.Ledger.Reset(r.Context()) {
			httpError(w, http.StatusInternalServerError, "api_error", "feedback could not be reset")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleProactive(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg, ok := deps.Narrator.ProactiveMessage(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}

func handleAcknowledgment(w http.ResponseWriter, r *http.Request) {
	kind, err := feedback.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": intel.ImmediateAcknowledgment(kind)})
}

func handleIntelState(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Narrator.State(r.Context()))
	}
}

func handleResetIntelState(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.Narrator.ResetState(r.Context()) {
			httpError(w, http.StatusInternalServerError, "api_error", "intelligence state could not be reset")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
