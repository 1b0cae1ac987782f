package domain

import "time"

// Transaction types.
const (
	TxTypeDeposit    = "Deposit"
	TxTypeWithdrawal = "Withdrawal"
	TxTypeTransfer   = "Transfer"
)

// Location is the geo context attached to a transaction.
type Location struct {
	CountryCode string `json:"countryCode,omitempty"`
	Country     string `json:"country,omitempty"`
	Address     string `json:"address,omitempty"`
}

// TransactionMeta is the typed shape of the per-transaction context blob:
// the originating IP, device, optional shared wallet, and location. Extra
// holds forward-compatible fields that have no dedicated slot yet.
type TransactionMeta struct {
	IP           string            `json:"ip,omitempty"`
	Device       string            `json:"device,omitempty"`
	SharedWallet string            `json:"sharedWallet,omitempty"`
	Location     Location          `json:"location,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// Transaction models a single money movement by a user.
type Transaction struct {
	ID           string
	UserID       string
	Amount       float64
	Currency     string // "USD" | "EUR" | "BTC" | "ETH"
	Type         string
	Timestamp    time.Time
	Counterparty string
	IsFraud      bool
	FraudTag     string // set only when IsFraud
	Meta         TransactionMeta
}
