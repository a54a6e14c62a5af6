package handlers

import (
	"net/http"
	"time"

	"github.com/ndewijer/invest-tracker/internal/api/request"
	"github.com/ndewijer/invest-tracker/internal/api/response"
	"github.com/ndewijer/invest-tracker/internal/model"
	"github.com/ndewijer/invest-tracker/internal/service"
)

// RefreshHandler exposes the incremental scheduler.
type RefreshHandler struct {
	refreshService *service.RefreshService
}

// NewRefreshHandler creates a new RefreshHandler
func NewRefreshHandler(refreshService *service.RefreshService) *RefreshHandler {
	return &RefreshHandler{
		refreshService: refreshService,
	}
}

// StateResponse is the schedule state of an account.
type StateResponse struct {
	AccountID string `json:"accountId"`
	State     string `json:"state"`
	StaleFrom string `json:"staleFrom,omitempty"`
	LastDate  string `json:"lastDate,omitempty"`
}

// RefreshResponse summarizes one refresh run.
type RefreshResponse struct {
	AccountID     string                `json:"accountId"`
	PreviousState StateResponse         `json:"previousState"`
	From          string                `json:"from,omitempty"`
	To            string                `json:"to,omitempty"`
	RowsWritten   int                   `json:"rowsWritten"`
	Succeeded     int                   `json:"succeeded"`
	Failed        int                   `json:"failed"`
	Tickers       []model.TickerOutcome `json:"tickers"`
}

// InvalidateResponse reports removed history rows.
type InvalidateResponse struct {
	AccountID   string `json:"accountId"`
	From        string `json:"from"`
	RowsRemoved int64  `json:"rowsRemoved"`
}

// State returns UNINITIALIZED, UP_TO_DATE or STALE with its start date.
//
// Endpoint: GET /api/account/{uuid}/state
func (h *RefreshHandler) State(w http.ResponseWriter, r *http.Request) {
	state, err := h.refreshService.State(r.Context(), accountID(r))
	if err != nil {
		response.RespondServiceError(w, "failed to get account state", err)
		return
	}
	response.RespondJSON(w, http.StatusOK, StateResponse{
		AccountID: state.AccountID,
		State:     state.State.String(),
		StaleFrom: formatDate(state.StaleFrom),
		LastDate:  formatDate(state.LastDate),
	})
}

// Refresh brings the account's history up to today. Tickers that could not be
// valued are listed with their error; the run still succeeds.
//
// Endpoint: POST /api/account/{uuid}/refresh
func (h *RefreshHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	report, err := h.refreshService.Refresh(r.Context(), accountID(r))
	if err != nil {
		response.RespondServiceError(w, "failed to refresh account", err)
		return
	}

	tickers := report.Tickers
	if tickers == nil {
		tickers = []model.TickerOutcome{}
	}
	prev := report.PreviousState
	response.RespondJSON(w, http.StatusOK, RefreshResponse{
		AccountID: report.AccountID,
		PreviousState: StateResponse{
			AccountID: prev.AccountID,
			State:     prev.State.String(),
			StaleFrom: formatDate(prev.StaleFrom),
			LastDate:  formatDate(prev.LastDate),
		},
		From:        formatDate(report.From),
		To:          formatDate(report.To),
		RowsWritten: report.RowsWritten,
		Succeeded:   report.Succeeded(),
		Failed:      report.Failed(),
		Tickers:     tickers,
	})
}

// Invalidate deletes the persisted history on and after the from date so the
// next refresh recomputes it.
//
// Endpoint: POST /api/account/{uuid}/invalidate?from=YYYY-MM-DD
func (h *RefreshHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	fromParam := r.URL.Query().Get("from")
	if fromParam == "" {
		response.RespondError(w, http.StatusBadRequest, "from is required", "")
		return
	}
	from, err := request.ParseDateParam("from", fromParam, time.Time{})
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid date parameter", err.Error())
		return
	}

	removed, err := h.refreshService.Invalidate(r.Context(), accountID(r), from)
	if err != nil {
		response.RespondServiceError(w, "failed to invalidate history", err)
		return
	}
	response.RespondJSON(w, http.StatusOK, InvalidateResponse{
		AccountID:   accountID(r),
		From:        formatDate(from),
		RowsRemoved: removed,
	})
}
