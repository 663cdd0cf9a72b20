package models

import "github.com/shopspring/decimal"

// ItemSuggestion is the only purchasable item type.
const ItemSuggestion = "tweet_suggestion"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentRequest is a BNB payment order issued by the backend.
type PaymentRequest struct {
	ID             string          `json:"id" yaml:"id"`
	TxID           string          `json:"tx_id,omitempty" yaml:"tx_id,omitempty"`
	UserID         string          `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Amount         decimal.Decimal `json:"amount" yaml:"amount"`
	ItemType       string          `json:"item_type" yaml:"item_type"`
	Status         PaymentStatus   `json:"status" yaml:"status"`
	CreatedAt      Timestamp       `json:"created_at" yaml:"created_at"`
	PaymentAddress string          `json:"payment_address,omitempty" yaml:"payment_address,omitempty"`
	Message        string          `json:"message,omitempty" yaml:"message,omitempty"`
}

// Reference returns the transaction id regardless of which field carried it.
func (p PaymentRequest) Reference() string {
	if p.ID != "" {
		return p.ID
	}
	return p.TxID
}

type PaymentVerification struct {
	Status  PaymentStatus `json:"status" yaml:"status"`
	TxID    string        `json:"tx_id,omitempty" yaml:"tx_id,omitempty"`
	TxHash  string        `json:"tx_hash,omitempty" yaml:"tx_hash,omitempty"`
	Message string        `json:"message,omitempty" yaml:"message,omitempty"`
}

func (v PaymentVerification) Completed() bool {
	return v.Status == PaymentCompleted
}
