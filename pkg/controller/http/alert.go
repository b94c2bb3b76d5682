package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/model/auth"
	"github.com/wardops-lab/lifeline/pkg/domain/model/errs"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
	"github.com/wardops-lab/lifeline/pkg/utils/safe"
)

func respondJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, mustMarshal(body))
}

func mustMarshal(body any) []byte {
	data, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return data
}

func principalFrom(r *http.Request) (*auth.Principal, error) {
	p := auth.From(r.Context())
	if p == nil {
		return nil, goerr.New("no principal in request context", goerr.T(errs.TagUnauthorized))
	}
	return p, nil
}

func alertIDFrom(r *http.Request) types.AlertID {
	return types.AlertID(chi.URLParam(r, "alertID"))
}

func createAlertHandler(uc UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFrom(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		var input alert.CreateInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			handleError(w, r, goerr.Wrap(err, "invalid request body", goerr.T(errs.TagInvalidRequest)))
			return
		}

		a, err := uc.CreateAlert(r.Context(), p, input)
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondJSON(w, r, http.StatusCreated, a)
	}
}

func listActiveAlertsHandler(uc UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFrom(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		alerts, err := uc.ListActiveAlerts(r.Context(), p)
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondJSON(w, r, http.StatusOK, alerts)
	}
}

func getAlertHandler(uc UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFrom(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		a, err := uc.GetAlert(r.Context(), p, alertIDFrom(r))
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondJSON(w, r, http.StatusOK, a)
	}
}

func listEscalationEventsHandler(uc UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFrom(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		events, err := uc.ListEscalationEvents(r.Context(), p, alertIDFrom(r))
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondJSON(w, r, http.StatusOK, events)
	}
}

func acknowledgeAlertHandler(uc UseCase) http.HandlerFunc {
	type request struct {
		Note string `json:"note"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFrom(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		var req request
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				handleError(w, r, goerr.Wrap(err, "invalid request body", goerr.T(errs.TagInvalidRequest)))
				return
			}
		}

		a, err := uc.AcknowledgeAlert(r.Context(), p, alertIDFrom(r), req.Note)
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondJSON(w, r, http.StatusOK, a)
	}
}

func resolveAlertHandler(uc UseCase) http.HandlerFunc {
	type request struct {
		Outcome types.ResolveOutcome `json:"outcome"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFrom(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			handleError(w, r, goerr.Wrap(err, "invalid request body", goerr.T(errs.TagInvalidRequest)))
			return
		}

		a, err := uc.ResolveAlert(r.Context(), p, alertIDFrom(r), req.Outcome)
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondJSON(w, r, http.StatusOK, a)
	}
}

func escalateAlertHandler(uc UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFrom(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		a, err := uc.EscalateAlert(r.Context(), p, alertIDFrom(r))
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondJSON(w, r, http.StatusOK, a)
	}
}

func setStaffDutyHandler(uc UseCase) http.HandlerFunc {
	type request struct {
		OnDuty bool `json:"on_duty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFrom(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			handleError(w, r, goerr.Wrap(err, "invalid request body", goerr.T(errs.TagInvalidRequest)))
			return
		}

		s, err := uc.SetStaffDuty(r.Context(), p, types.UserID(chi.URLParam(r, "userID")), req.OnDuty)
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondJSON(w, r, http.StatusOK, s)
	}
}
