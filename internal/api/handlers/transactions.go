package handlers

import (
	"net/http"

	"github.com/ndewijer/invest-tracker/internal/api/response"
	"github.com/ndewijer/invest-tracker/internal/model"
	"github.com/ndewijer/invest-tracker/internal/service"
)

// TransactionHandler handles ledger requests
type TransactionHandler struct {
	ledgerService *service.LedgerService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(ledgerService *service.LedgerService) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
	}
}

// TransactionResponse is one ledger entry.
type TransactionResponse struct {
	ID             string  `json:"id"`
	Date           string  `json:"date"`
	Ticker         string  `json:"ticker"`
	AssetClass     string  `json:"assetClass"`
	Kind           string  `json:"kind"`
	Currency       string  `json:"currency"`
	Units          float64 `json:"units"`
	UnitPrice      float64 `json:"unitPrice"`
	Commission     float64 `json:"commission"`
	FxRate         float64 `json:"fxRate"`
	TotalCost      float64 `json:"totalCost"`
	UnitsAfter     float64 `json:"unitsAfter"`
	InvestmentType string  `json:"investmentType"`
}

// ImportResponse reports a ledger import.
type ImportResponse struct {
	Imported     int                   `json:"imported"`
	Transactions []TransactionResponse `json:"transactions"`
}

func toTransactionResponses(transactions []model.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(transactions))
	for i, t := range transactions {
		out[i] = TransactionResponse{
			ID:             t.ID,
			Date:           formatDate(t.Date),
			Ticker:         t.Ticker,
			AssetClass:     t.AssetClass,
			Kind:           t.Kind.String(),
			Currency:       t.Currency,
			Units:          t.Units,
			UnitPrice:      t.UnitPrice,
			Commission:     t.Commission,
			FxRate:         t.FxRate,
			TotalCost:      t.TotalCost,
			UnitsAfter:     t.UnitsAfter,
			InvestmentType: t.InvestmentType,
		}
	}
	return out
}

// Transactions lists an account's ledger in chronological order.
//
// Endpoint: GET /api/account/{uuid}/transactions
func (h *TransactionHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.ledgerService.GetTransactions(r.Context(), accountID(r))
	if err != nil {
		response.RespondServiceError(w, "failed to retrieve transactions", err)
		return
	}
	response.RespondJSON(w, http.StatusOK, toTransactionResponses(transactions))
}

// Import stores a ';' separated CSV ledger sent as the request body. The account
// in the path overrides the file's account_id column.
//
// Endpoint: POST /api/account/{uuid}/transactions/import
// Response: 201 Created with ImportResponse
// Error: 422 Unprocessable Entity for malformed or empty files, nothing stored
func (h *TransactionHandler) Import(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	imported, err := h.ledgerService.ImportCSV(r.Context(), accountID(r), body)
	if err != nil {
		response.RespondServiceError(w, "failed to import ledger", err)
		return
	}
	response.RespondJSON(w, http.StatusCreated, ImportResponse{
		Imported:     len(imported),
		Transactions: toTransactionResponses(imported),
	})
}
