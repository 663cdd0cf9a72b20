package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/dyike/xagent/internal/models"
)

// SuggestionPrice is the BNB price of one generated suggestion.
var SuggestionPrice = decimal.RequireFromString("0.015")

// PaymentClient covers BNB payment requests and their settlement.
type PaymentClient struct {
	c *Client
}

type paymentOrder struct {
	ItemType string `json:"item_type"`
	Quantity int    `json:"quantity"`
}

type paymentProof struct {
	TxID   string `json:"tx_id"`
	TxHash string `json:"tx_hash"`
}

// QuotePrice returns the local price for quantity items. Unknown item types
// are free.
func QuotePrice(itemType string, quantity int) decimal.Decimal {
	if itemType != models.ItemSuggestion || quantity < 1 {
		return decimal.Zero
	}
	return SuggestionPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

func (p *PaymentClient) CreatePaymentRequest(ctx context.Context, itemType string, quantity int) (models.PaymentRequest, error) {
	const op = "create payment request"
	if err := requireText(op, "item type", itemType); err != nil {
		return models.PaymentRequest{}, err
	}
	if err := requirePositive(op, "quantity", quantity); err != nil {
		return models.PaymentRequest{}, err
	}
	var req models.PaymentRequest
	err := p.c.do(ctx, call{
		op:       op,
		method:   http.MethodPost,
		path:     "/api/payment/request",
		auth:     true,
		body:     paymentOrder{ItemType: itemType, Quantity: quantity},
		fallback: "Failed to create payment request",
		out:      &req,
	})
	return req, err
}

// VerifyPayment submits the on-chain transaction hash for a pending request.
func (p *PaymentClient) VerifyPayment(ctx context.Context, txID, txHash string) (models.PaymentVerification, error) {
	const op = "verify payment"
	if err := requireText(op, "transaction id", txID); err != nil {
		return models.PaymentVerification{}, err
	}
	if err := requireText(op, "transaction hash", txHash); err != nil {
		return models.PaymentVerification{}, err
	}
	var v models.PaymentVerification
	err := p.c.do(ctx, call{
		op:       op,
		method:   http.MethodPost,
		path:     "/api/payment/verify",
		auth:     true,
		body:     paymentProof{TxID: txID, TxHash: txHash},
		fallback: "Failed to verify payment",
		out:      &v,
	})
	return v, err
}

func (p *PaymentClient) GetPaymentStatus(ctx context.Context, txID string) (models.PaymentRequest, error) {
	const op = "get payment status"
	if err := requireText(op, "transaction id", txID); err != nil {
		return models.PaymentRequest{}, err
	}
	var req models.PaymentRequest
	err := p.c.do(ctx, call{
		op:       op,
		method:   http.MethodGet,
		path:     "/api/payment/status/" + url.PathEscape(txID),
		auth:     true,
		fallback: "Failed to get payment status",
		out:      &req,
	})
	return req, err
}

func (p *PaymentClient) GetPaymentHistory(ctx context.Context) ([]models.PaymentRequest, error) {
	var history []models.PaymentRequest
	err := p.c.do(ctx, call{
		op:       "get payment history",
		method:   http.MethodGet,
		path:     "/api/payment/history",
		auth:     true,
		fallback: "Failed to get payment history",
		out:      &history,
	})
	return history, err
}
