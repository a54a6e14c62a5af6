package handlers

import (
	"net/http"
	"time"

	"github.com/ndewijer/invest-tracker/internal/api/request"
	"github.com/ndewijer/invest-tracker/internal/api/response"
	"github.com/ndewijer/invest-tracker/internal/model"
	"github.com/ndewijer/invest-tracker/internal/service"
	"github.com/ndewijer/invest-tracker/internal/validation"
)

// AccountHandler handles account and history read-model requests
type AccountHandler struct {
	accountService *service.AccountService
	now            func() time.Time
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		now:            time.Now,
	}
}

// HistoryRowResponse is one day of an account's history.
type HistoryRowResponse struct {
	Date           string                      `json:"date"`
	AccountBalance model.Amount                `json:"accountBalance"`
	TotalCost      model.Amount                `json:"totalCost"`
	Incomplete     bool                        `json:"incomplete"`
	Tickers        map[string]model.TickerCell `json:"tickers"`
}

// Accounts lists every account.
//
// Endpoint: GET /api/account
func (h *AccountHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.GetAccounts(r.Context())
	if err != nil {
		response.RespondServiceError(w, "failed to retrieve accounts", err)
		return
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	response.RespondJSON(w, http.StatusOK, accounts)
}

// CreateAccount creates an account from a JSON body with name and owner.
//
// Endpoint: POST /api/account
// Response: 201 Created with the account
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAccountRequest
	if err := parseJSON(w, r, &req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := validation.ValidateCreateAccount(req); err != nil {
		response.RespondServiceError(w, "validation failed", err)
		return
	}

	account, err := h.accountService.CreateAccount(r.Context(), req.Name, req.Owner)
	if err != nil {
		response.RespondServiceError(w, "failed to create account", err)
		return
	}
	response.RespondJSON(w, http.StatusCreated, account)
}

// History returns the persisted rows of an account within an optional window.
//
// Endpoint: GET /api/account/{uuid}/history?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	window, err := request.ParseDateRange(r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"), h.now())
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid date parameter", err.Error())
		return
	}
	if err := validation.ValidateDateRange(window.StartDate, window.EndDate); err != nil {
		response.RespondServiceError(w, "invalid date range", err)
		return
	}

	series, err := h.accountService.History(r.Context(), accountID(r), window.StartDate, window.EndDate)
	if err != nil {
		response.RespondServiceError(w, "failed to get account history", err)
		return
	}

	rows := make([]HistoryRowResponse, len(series.Rows))
	for i, row := range series.Rows {
		rows[i] = HistoryRowResponse{
			Date:           formatDate(row.Date),
			AccountBalance: row.AccountBalance,
			TotalCost:      row.TotalCost,
			Incomplete:     row.Incomplete,
			Tickers:        row.Tickers,
		}
	}
	response.RespondJSON(w, http.StatusOK, rows)
}

// Breakdown returns the per asset class value and cost of an account at a date.
//
// Endpoint: GET /api/account/{uuid}/breakdown?date=YYYY-MM-DD (default today)
func (h *AccountHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	date, err := request.ParseDateParam("date", r.URL.Query().Get("date"), model.Day(h.now()))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid date parameter", err.Error())
		return
	}

	breakdown, err := h.accountService.Breakdown(r.Context(), accountID(r), date)
	if err != nil {
		response.RespondServiceError(w, "failed to get account breakdown", err)
		return
	}
	if breakdown == nil {
		breakdown = []model.Breakdown{}
	}
	response.RespondJSON(w, http.StatusOK, breakdown)
}
