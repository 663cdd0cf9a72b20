// Package panels holds the feature panels. Each panel keeps its own
// transient state and reaches shared state only through the store.
//
// Work that hits the network is split in three steps so a UI event loop
// can run the middle one elsewhere: Begin validates and marks the panel
// busy, Run/Execute performs the calls without touching the panel, and
// Complete applies the outcome. The blocking helpers chain all three.
package panels

import (
	"context"
	"errors"

	"github.com/dyike/xagent/internal/api"
	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/store"
)

// ErrBusy is returned by Begin steps while a previous request is in flight.
var ErrBusy = errors.New("a request is already in progress")

// Dispatcher is the part of the store panels use.
type Dispatcher interface {
	Dispatch(t store.Transition)
	Snapshot() store.Snapshot
}

type AuthAPI interface {
	Login(ctx context.Context, creds models.Credentials) (models.AuthToken, error)
	Register(ctx context.Context, reg models.Registration) (models.User, error)
	GetCurrentUser(ctx context.Context) (models.User, error)
	Logout() error
}

type AccountAPI interface {
	GetCurrentUser(ctx context.Context) (models.User, error)
	UpdateSubscriptionTier(ctx context.Context, tier models.SubscriptionTier) (models.User, error)
	ConnectPlatformAccount(ctx context.Context, acct models.PlatformAccount) (models.User, error)
}

type ContentAPI interface {
	GetTrendingPosts(ctx context.Context, count int) ([]models.Post, error)
	AnalyzePost(ctx context.Context, text string) (models.PostAnalysis, error)
	GenerateReplyOptions(ctx context.Context, req api.ReplyRequest) ([]models.ReplyOption, error)
	GetSuggestions(ctx context.Context, count int, topics []string) ([]models.PostSuggestion, error)
	GetUserPosts(ctx context.Context, username string, count int) ([]models.Post, error)
	PublishPost(ctx context.Context, text string) (models.Post, error)
	ReplyToPost(ctx context.Context, postID, text string) (models.Post, error)
	RepostWithComment(ctx context.Context, postID, text string) (models.Post, error)
}

type PaymentAPI interface {
	CreatePaymentRequest(ctx context.Context, itemType string, quantity int) (models.PaymentRequest, error)
	VerifyPayment(ctx context.Context, txID, txHash string) (models.PaymentVerification, error)
	GetPaymentStatus(ctx context.Context, txID string) (models.PaymentRequest, error)
	GetPaymentHistory(ctx context.Context) ([]models.PaymentRequest, error)
}

// signOutOnExpiry resets the store when err means the session is gone, so
// the router falls back to the sign-in page.
func signOutOnExpiry(st Dispatcher, err error) {
	if api.KindOf(err) == api.KindSessionExpired {
		st.Dispatch(store.Reset{})
	}
}
