package panels

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dyike/xagent/internal/api"
	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/store"
)

// AccountPanel manages the subscription, linked accounts and payments.
// Its methods block on the network and may be called from any goroutine.
type AccountPanel struct {
	accounts AccountAPI
	payments PaymentAPI
	st       Dispatcher

	mu      sync.Mutex
	pending *models.PaymentRequest
	history []models.PaymentRequest
	err     string
}

func NewAccountPanel(a AccountAPI, p PaymentAPI, st Dispatcher) *AccountPanel {
	return &AccountPanel{accounts: a, payments: p, st: st}
}

func (p *AccountPanel) Error() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Pending returns the last payment request that has not been settled.
func (p *AccountPanel) Pending() (models.PaymentRequest, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return models.PaymentRequest{}, false
	}
	return *p.pending, true
}

func (p *AccountPanel) History() []models.PaymentRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.PaymentRequest(nil), p.history...)
}

func (p *AccountPanel) UpdateTier(ctx context.Context, tier models.SubscriptionTier) (models.User, error) {
	user, err := p.accounts.UpdateSubscriptionTier(ctx, tier)
	return p.applyUser(user, err)
}

func (p *AccountPanel) ConnectX(ctx context.Context, acct models.PlatformAccount) (models.User, error) {
	user, err := p.accounts.ConnectPlatformAccount(ctx, acct)
	return p.applyUser(user, err)
}

// RefreshUser reloads the signed-in account.
func (p *AccountPanel) RefreshUser(ctx context.Context) (models.User, error) {
	user, err := p.accounts.GetCurrentUser(ctx)
	return p.applyUser(user, err)
}

// Quote prices quantity suggestions locally.
func (p *AccountPanel) Quote(quantity int) decimal.Decimal {
	return api.QuotePrice(models.ItemSuggestion, quantity)
}

// RequestSuggestions opens a payment request for quantity suggestions.
func (p *AccountPanel) RequestSuggestions(ctx context.Context, quantity int) (models.PaymentRequest, error) {
	req, err := p.payments.CreatePaymentRequest(ctx, models.ItemSuggestion, quantity)
	if p.record(err) {
		return req, err
	}
	p.mu.Lock()
	p.pending = &req
	p.mu.Unlock()
	return req, nil
}

// Verify submits the transaction hash for txID. A completed payment clears
// the pending request and reloads the account so the new allowance shows.
func (p *AccountPanel) Verify(ctx context.Context, txID, txHash string) (models.PaymentVerification, error) {
	v, err := p.payments.VerifyPayment(ctx, txID, txHash)
	if p.record(err) {
		return v, err
	}
	if !v.Completed() {
		msg := v.Message
		if msg == "" {
			msg = "Payment verification failed"
		}
		p.mu.Lock()
		p.err = msg
		p.mu.Unlock()
		return v, nil
	}

	p.mu.Lock()
	if p.pending != nil && p.pending.Reference() == txID {
		p.pending = nil
	}
	p.mu.Unlock()

	if _, err := p.RefreshUser(ctx); err != nil {
		return v, err
	}
	return v, nil
}

func (p *AccountPanel) Status(ctx context.Context, txID string) (models.PaymentRequest, error) {
	req, err := p.payments.GetPaymentStatus(ctx, txID)
	p.record(err)
	return req, err
}

func (p *AccountPanel) LoadHistory(ctx context.Context) ([]models.PaymentRequest, error) {
	history, err := p.payments.GetPaymentHistory(ctx)
	if p.record(err) {
		return nil, err
	}
	p.mu.Lock()
	p.history = history
	p.mu.Unlock()
	return history, nil
}

func (p *AccountPanel) applyUser(user models.User, err error) (models.User, error) {
	if p.record(err) {
		return models.User{}, err
	}
	p.st.Dispatch(store.SetUser{User: &user})
	return user, nil
}

// record stores err's message (or clears it) and reports whether err is
// non-nil.
func (p *AccountPanel) record(err error) bool {
	p.mu.Lock()
	p.err = api.MessageOf(err)
	p.mu.Unlock()
	if err != nil {
		signOutOnExpiry(p.st, err)
		return true
	}
	return false
}
