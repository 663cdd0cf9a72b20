package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/xagent/internal/api"
	"github.com/dyike/xagent/internal/api/apitest"
	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/session"
)

func newClient(t *testing.T) (*apitest.Server, *api.Client, *session.MemoryStore) {
	t.Helper()
	srv := apitest.New(t)
	creds := session.NewMemoryStore()
	return srv, api.New(srv.URL, creds), creds
}

func signedIn(t *testing.T) (*apitest.Server, *api.Client, *session.MemoryStore) {
	t.Helper()
	srv, c, creds := newClient(t)
	require.NoError(t, creds.Save(srv.IssueToken(apitest.DemoEmail)))
	return srv, c, creds
}

func TestLoginStoresCredential(t *testing.T) {
	srv, c, creds := newClient(t)
	ctx := context.Background()

	token, err := c.Auth().Login(ctx, models.Credentials{Email: apitest.DemoEmail, Password: apitest.DemoPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)

	stored, ok := creds.Read()
	require.True(t, ok)
	assert.Equal(t, token.AccessToken, stored)

	form, err := url.ParseQuery(string(srv.Body(apitest.RouteLogin)))
	require.NoError(t, err)
	assert.Equal(t, apitest.DemoEmail, form.Get("username"))
	assert.Equal(t, apitest.DemoPassword, form.Get("password"))
	assert.Empty(t, srv.Header(apitest.RouteLogin, "Authorization"))
	assert.NotEmpty(t, srv.Header(apitest.RouteLogin, "X-Request-ID"))

	user, err := c.Auth().GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, apitest.DemoUsername, user.Username)
	assert.Equal(t, "Bearer "+stored, srv.Header(apitest.RouteMe, "Authorization"))
}

func TestLoginFailureUsesServerDetail(t *testing.T) {
	_, c, creds := newClient(t)

	_, err := c.Auth().Login(context.Background(), models.Credentials{Email: apitest.DemoEmail, Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, api.KindRequestFailed, api.KindOf(err))
	assert.Equal(t, "Incorrect email or password", api.MessageOf(err))
	assert.False(t, creds.IsPresent())
}

func TestFallbackMessageWhenBodyHasNoDetail(t *testing.T) {
	srv, c, _ := newClient(t)
	srv.Fail(apitest.RouteLogin, http.StatusInternalServerError, "")

	_, err := c.Auth().Login(context.Background(), models.Credentials{Email: "x@y.z", Password: "pw"})
	assert.Equal(t, "Failed to login", api.MessageOf(err))

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestServerMessageFormats(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"detail string", "application/json", `{"detail":"Email already registered"}`, "Email already registered"},
		{"fastapi list", "application/json", `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email"},{"msg":"field required"}]}`, "value is not a valid email; field required"},
		{"message", "application/json", `{"message":"rate limited"}`, "rate limited"},
		{"problem json", "application/problem+json", `{"type":"about:blank","title":"Service Unavailable","status":503}`, "Service Unavailable"},
		{"html page", "text/html", `<html><head><title> 502 Bad Gateway </title></head><body>nginx</body></html>`, "502 Bad Gateway"},
		{"plain text", "text/plain", `oops`, "Failed to register"},
		{"malformed json", "application/json", `{"detail":`, "Failed to register"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, c, _ := newClient(t)
			srv.FailRaw(apitest.RouteRegister, http.StatusBadRequest, tt.contentType, tt.body)

			_, err := c.Auth().Register(context.Background(), models.Registration{Email: "n@b.com", Password: "pw", Username: "n"})
			assert.True(t, errors.Is(err, api.ErrRequestFailed))
			assert.Equal(t, tt.want, api.MessageOf(err))
		})
	}
}

func TestUnauthorizedClearsCredential(t *testing.T) {
	calls := map[string]func(context.Context, *api.Client) error{
		"me": func(ctx context.Context, c *api.Client) error {
			_, err := c.Auth().GetCurrentUser(ctx)
			return err
		},
		"trending": func(ctx context.Context, c *api.Client) error {
			_, err := c.Content().GetTrendingPosts(ctx, 5)
			return err
		},
		"publish": func(ctx context.Context, c *api.Client) error {
			_, err := c.Content().PublishPost(ctx, "hello")
			return err
		},
		"history": func(ctx context.Context, c *api.Client) error {
			_, err := c.Payment().GetPaymentHistory(ctx)
			return err
		},
	}
	for name, fn := range calls {
		t.Run(name, func(t *testing.T) {
			srv, c, creds := signedIn(t)
			srv.Expire()

			err := fn(context.Background(), c)
			require.Error(t, err)
			assert.Equal(t, api.KindSessionExpired, api.KindOf(err))
			assert.True(t, errors.Is(err, api.ErrSessionExpired))
			assert.True(t, errors.Is(err, api.ErrRequestFailed))
			assert.Equal(t, api.SessionExpiredMessage, api.MessageOf(err))
			assert.False(t, creds.IsPresent())
		})
	}
}

func TestMissingCredentialSkipsNetwork(t *testing.T) {
	srv, c, _ := newClient(t)

	_, err := c.Content().GetSuggestions(context.Background(), 3, nil)
	assert.Equal(t, api.KindNoCredential, api.KindOf(err))
	assert.True(t, errors.Is(err, api.ErrRequestFailed))
	assert.Zero(t, srv.TotalCalls())
}

func TestValidationSkipsNetwork(t *testing.T) {
	srv, c, _ := signedIn(t)
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["empty analysis"] = c.Content().AnalyzePost(ctx, "   ")
	_, checks["zero count"] = c.Content().GetTrendingPosts(ctx, 0)
	_, checks["score range"] = c.Content().GenerateReplyOptions(ctx, api.ReplyRequest{Text: "x", Count: 3, TrendingScore: 1.5})
	_, checks["bad tier"] = c.Auth().UpdateSubscriptionTier(ctx, "gold")
	_, checks["empty hash"] = c.Payment().VerifyPayment(ctx, "tx_1", "")
	_, checks["zero quantity"] = c.Payment().CreatePaymentRequest(ctx, models.ItemSuggestion, 0)
	_, checks["empty username"] = c.Content().GetUserPosts(ctx, "", 10)
	_, checks["empty handle"] = c.Auth().ConnectPlatformAccount(ctx, models.PlatformAccount{AccessToken: "a", AccessTokenSecret: "b"})

	for name, err := range checks {
		assert.Truef(t, errors.Is(err, api.ErrValidation), "%s: got %v", name, err)
	}
	assert.Zero(t, srv.TotalCalls())
}

func TestGenerateReplyOptionsReturnsRequestedCount(t *testing.T) {
	srv, c, _ := signedIn(t)

	options, err := c.Content().GenerateReplyOptions(context.Background(), api.ReplyRequest{Text: "text", Count: 3})
	require.NoError(t, err)
	assert.Len(t, options, 3)

	var body map[string]any
	require.NoError(t, json.Unmarshal(srv.Body(apitest.RouteReplyOptions), &body))
	assert.Equal(t, "text", body["text"])
	assert.Equal(t, float64(3), body["count"])
	assert.Equal(t, false, body["is_mention"])
	assert.Equal(t, float64(0), body["trending_score"])
}

func TestGetSuggestionsSendsRepeatedTopics(t *testing.T) {
	_, c, _ := signedIn(t)

	out, err := c.Content().GetSuggestions(context.Background(), 1, []string{"AI", " ", "Go"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"AI", "Go"}, out[0].Topics)
}

func TestContentRoundTrip(t *testing.T) {
	srv, c, _ := signedIn(t)
	ctx := context.Background()

	posts, err := c.Content().GetTrendingPosts(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, "techguru", posts[0].Author.Handle)

	analysis, err := c.Content().AnalyzePost(ctx, "AI is neat")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, analysis.Sentiment)
	assert.Equal(t, 0.75, analysis.Engagement.EstimatedScore)

	_, err = c.Content().ReplyToPost(ctx, "t1", "agreed")
	require.NoError(t, err)
	_, err = c.Content().RepostWithComment(ctx, "t2", "worth a read")
	require.NoError(t, err)
	assert.Equal(t, []string{"agreed", "worth a read"}, srv.Published())

	var ref map[string]string
	require.NoError(t, json.Unmarshal(srv.Body(apitest.RouteRepost), &ref))
	assert.Equal(t, "t2", ref["tweet_id"])
}

func TestAccountUpdates(t *testing.T) {
	_, c, _ := signedIn(t)
	ctx := context.Background()

	user, err := c.Auth().UpdateSubscriptionTier(ctx, models.TierPro)
	require.NoError(t, err)
	assert.Equal(t, models.TierPro, user.SubscriptionTier)

	user, err = c.Auth().ConnectPlatformAccount(ctx, models.PlatformAccount{Handle: "ada_x", AccessToken: "a", AccessTokenSecret: "b"})
	require.NoError(t, err)
	handle, ok := user.Handle(models.PlatformX)
	assert.True(t, ok)
	assert.Equal(t, "ada_x", handle)
}

func TestLogoutOnlyClearsStore(t *testing.T) {
	srv, c, creds := signedIn(t)

	require.NoError(t, c.Auth().Logout())
	assert.False(t, creds.IsPresent())
	assert.False(t, c.Auth().IsAuthenticated())
	assert.Zero(t, srv.TotalCalls())
}

func TestPaymentFlow(t *testing.T) {
	srv, c, _ := signedIn(t)
	ctx := context.Background()

	req, err := c.Payment().CreatePaymentRequest(ctx, models.ItemSuggestion, 3)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, req.Status)
	assert.True(t, req.Amount.Equal(api.QuotePrice(models.ItemSuggestion, 3)))

	v, err := c.Payment().VerifyPayment(ctx, req.ID, "0xabc")
	require.NoError(t, err)
	assert.True(t, v.Completed())

	status, err := c.Payment().GetPaymentStatus(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, status.Status)

	history, err := c.Payment().GetPaymentHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)

	user, _ := srv.User(apitest.DemoEmail)
	assert.Equal(t, 3, user.SuggestionsRemaining)

	_, err = c.Payment().GetPaymentStatus(ctx, "tx_missing")
	assert.Equal(t, "Payment request not found", api.MessageOf(err))
}

func TestQuotePrice(t *testing.T) {
	assert.True(t, api.QuotePrice(models.ItemSuggestion, 1).Equal(decimal.RequireFromString("0.015")))
	assert.Equal(t, "0.15", api.QuotePrice(models.ItemSuggestion, 10).String())
	assert.True(t, api.QuotePrice("sticker", 4).IsZero())
}

func TestTransportFailure(t *testing.T) {
	srv, _, _ := newClient(t)
	base := srv.URL
	srv.Close()

	c := api.New(base, session.NewMemoryStore())
	_, err := c.Auth().Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "pw"})
	assert.Equal(t, api.KindRequestFailed, api.KindOf(err))
	assert.NotEmpty(t, api.MessageOf(err))
}

func TestSetBaseURL(t *testing.T) {
	srv, _, _ := newClient(t)
	c := api.New("http://127.0.0.1:1/", session.NewMemoryStore())
	assert.Equal(t, "http://127.0.0.1:1", c.BaseURL())

	c.SetBaseURL(srv.URL + "/")
	_, err := c.Auth().Login(context.Background(), models.Credentials{Email: apitest.DemoEmail, Password: apitest.DemoPassword})
	require.NoError(t, err)
}
