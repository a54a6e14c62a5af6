package model

import "time"

// Account owns a ledger of transactions and one historical series.
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
}
