// Package ledger reads transaction ledgers exported as semicolon separated CSV.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/invest-tracker/internal/apperrors"
	"github.com/ndewijer/invest-tracker/internal/model"
)

// Columns is the expected header, in order.
var Columns = []string{
	"account_id",
	"date_of_purchase",
	"operation_ticker",
	"type_of_transaction_value",
	"currency",
	"number_of_units",
	"price_of_one_unit",
	"commission",
	"yahoo_ticker",
	"type_of_investment",
}

const (
	colAccount = iota
	colDate
	colOperation
	colAssetClass
	colCurrency
	colUnits
	colPrice
	colCommission
	colTicker
	colInvestmentType
)

// Parse reads every ledger row from r. The first line must be the header.
//
// When accountID is not empty it replaces the account_id column of every row.
// Rows are returned in file order with Kind resolved from the ticker; fx rate,
// total cost and units_after are left for the caller to derive.
//
// A single invalid row rejects the whole file with an *apperrors.MalformedEntryError
// naming the line and field.
func Parse(r io.Reader, accountID string) ([]model.Transaction, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = len(Columns)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.ErrEmptyLedger
	}
	if err != nil {
		return nil, malformed(1, "header", "", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var transactions []model.Transaction
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				line = parseErr.Line
			}
			return nil, malformed(line, "record", "", err)
		}
		line, _ := reader.FieldPos(0)

		t, err := parseRecord(record, line)
		if err != nil {
			return nil, err
		}
		if accountID != "" {
			t.AccountID = accountID
		}
		if t.AccountID == "" {
			return nil, malformed(line, Columns[colAccount], "", apperrors.ErrEmptyID)
		}
		transactions = append(transactions, t)
	}

	if len(transactions) == 0 {
		return nil, apperrors.ErrEmptyLedger
	}
	return transactions, nil
}

func checkHeader(header []string) error {
	for i, want := range Columns {
		got := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
		if got != want {
			return malformed(1, "header", header[i], fmt.Errorf("expected column %q", want))
		}
	}
	return nil
}

func parseRecord(record []string, line int) (model.Transaction, error) {
	field := func(i int) string { return strings.TrimSpace(record[i]) }

	date, err := model.ParseDate(field(colDate))
	if err != nil {
		return model.Transaction{}, malformed(line, Columns[colDate], field(colDate), err)
	}

	currency := strings.ToUpper(field(colCurrency))
	if money.GetCurrency(currency) == nil {
		return model.Transaction{}, malformed(line, Columns[colCurrency], field(colCurrency), apperrors.ErrUnsupportedCurrency)
	}

	units, err := number(record, colUnits, line, true)
	if err != nil {
		return model.Transaction{}, err
	}
	price, err := number(record, colPrice, line, false)
	if err != nil {
		return model.Transaction{}, err
	}
	commission, err := number(record, colCommission, line, false)
	if err != nil {
		return model.Transaction{}, err
	}

	ticker := strings.ToUpper(field(colTicker))
	return model.Transaction{
		AccountID:       field(colAccount),
		Date:            date,
		OperationTicker: field(colOperation),
		AssetClass:      field(colAssetClass),
		Currency:        currency,
		Units:           units,
		UnitPrice:       price,
		Commission:      commission,
		Ticker:          ticker,
		InvestmentType:  field(colInvestmentType),
		Kind:            model.ResolveKind(ticker),
	}, nil
}

// number parses a decimal column. Commas are accepted as the decimal separator.
func number(record []string, col, line int, signed bool) (float64, error) {
	raw := strings.TrimSpace(record[col])
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return 0, malformed(line, Columns[col], raw, err)
	}
	if !signed && d.IsNegative() {
		return 0, malformed(line, Columns[col], raw, errors.New("must not be negative"))
	}
	v := d.InexactFloat64()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, malformed(line, Columns[col], raw, errors.New("out of range"))
	}
	return v, nil
}

func malformed(line int, field, value string, err error) error {
	return &apperrors.MalformedEntryError{Line: line, Field: field, Value: value, Err: err}
}
