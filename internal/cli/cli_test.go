package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/xagent/config"
	"github.com/dyike/xagent/internal/api/apitest"
	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/panels"
)

type harness struct {
	t   *testing.T
	srv *apitest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("XAGENT_DATA_DIR", t.TempDir())
	for _, key := range []string{"API_URL", "XAGENT_API_URL", "XAGENT_SESSION_BACKEND", "XAGENT_SESSION_FILE", "XAGENT_DEBUG"} {
		t.Setenv(key, "")
	}
	return &harness{t: t, srv: apitest.New(t)}
}

// run executes one invocation against the fake backend, the way a fresh
// process would.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	a := newApp()
	cmd := a.rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--api-url", h.srv.URL}, args...))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	a.close()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func (h *harness) login() {
	h.t.Helper()
	h.mustRun("login", "--email", apitest.DemoEmail, "--password", apitest.DemoPassword)
}

func decodeJSON[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestVersionNeedsNoSetup(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("version")
	assert.Contains(t, out, "xagent dev")
	assert.Zero(t, h.srv.TotalCalls())
}

func TestLoginPersistsAcrossInvocations(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("login", "--email", apitest.DemoEmail, "--password", apitest.DemoPassword)
	assert.Contains(t, out, "Signed in")
	assert.Contains(t, out, apitest.DemoUsername)

	out = h.mustRun("whoami")
	assert.Contains(t, out, apitest.DemoUsername)
	assert.Equal(t, 2, h.srv.Calls(apitest.RouteMe))

	user := decodeJSON[models.User](t, h.mustRun("-o", "json", "whoami"))
	assert.Equal(t, apitest.DemoEmail, user.Email)

	out = h.mustRun("logout", "--yes")
	assert.Contains(t, out, "Signed out")

	_, err := h.run("whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")
}

func TestEphemeralSessionIsNotKept(t *testing.T) {
	h := newHarness(t)
	h.mustRun("--ephemeral", "login", "--email", apitest.DemoEmail, "--password", apitest.DemoPassword)

	_, err := h.run("whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")
}

func TestLoginWithWrongPassword(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "--email", apitest.DemoEmail, "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect email or password")
}

func TestRegisterMismatchNeverCallsBackend(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("register", "--email", "new@b.com", "--username", "neo",
		"--password", "one", "--confirm", "two")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Passwords do not match")
	assert.Zero(t, h.srv.Calls(apitest.RouteRegister))
}

func TestRegisterSignsIn(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("register", "--email", "new@b.com", "--username", "neo",
		"--password", "secret", "--confirm", "secret")
	assert.Contains(t, out, "Account created")
	assert.Contains(t, h.mustRun("whoami"), "neo")
}

func TestTrendingFilter(t *testing.T) {
	h := newHarness(t)
	h.login()

	posts := decodeJSON[[]models.Post](t, h.mustRun("-o", "json", "trending", "--filter", "crypto"))
	require.Len(t, posts, 1)
	assert.Equal(t, "t2", posts[0].ID)

	posts = decodeJSON[[]models.Post](t, h.mustRun("-o", "json", "trending", "-f", "engagement"))
	got := make([]string, 0, len(posts))
	for _, p := range posts {
		got = append(got, p.ID)
	}
	assert.Equal(t, []string{"t3", "t4", "t1", "t2"}, got)
}

func TestUnknownTrendingFilter(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("trending", "--filter", "sports")
	require.Error(t, err)
	assert.Zero(t, h.srv.Calls(apitest.RouteTrending))
}

func TestApproveSuggestion(t *testing.T) {
	h := newHarness(t)
	h.login()

	out := h.mustRun("suggestions", "approve", "2")
	assert.Contains(t, out, "Published")
	assert.Equal(t, []string{apitest.DefaultSuggestions()[1].Text}, h.srv.Published())

	h.mustRun("suggestions", "approve", "1", "--text", "My own words")
	assert.Equal(t, "My own words", h.srv.Published()[1])

	_, err := h.run("suggestions", "approve", "42")
	require.Error(t, err)
	assert.Len(t, h.srv.Published(), 2)
}

func TestSuggestionViews(t *testing.T) {
	h := newHarness(t)
	h.login()

	high := decodeJSON[[]models.PostSuggestion](t, h.mustRun("-o", "json", "suggestions", "--high"))
	require.Len(t, high, 1)
	assert.Equal(t, "1", high[0].ID)

	byTopic := decodeJSON[[]models.PostSuggestion](t, h.mustRun("-o", "json", "sg", "--topic", "blockchain"))
	require.Len(t, byTopic, 1)
	assert.Equal(t, "2", byTopic[0].ID)

	created := decodeJSON[models.PostSuggestion](t, h.mustRun("-o", "json", "suggestions", "generate", "--topics", "Go,Rust"))
	assert.Equal(t, []string{"Go", "Rust"}, created.Topics)
}

func TestAnalyzeBlankTextSkipsBackend(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, err := h.run("analyze", "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please enter some text to analyze")
	assert.Zero(t, h.srv.Calls(apitest.RouteAnalyze))
	assert.Zero(t, h.srv.Calls(apitest.RouteReplyOptions))
}

func TestAnalyzeRanksReplies(t *testing.T) {
	h := newHarness(t)
	h.login()

	report := decodeJSON[struct {
		Analysis models.PostAnalysis `json:"analysis"`
		Replies  []models.ReplyOption `json:"replies"`
	}](t, h.mustRun("-o", "json", "analyze", "Shipping", "our", "new", "AI", "model"))

	assert.Equal(t, models.SentimentPositive, report.Analysis.Sentiment)
	require.Len(t, report.Replies, 3)
	assert.Equal(t, []string{"2", "1", "3"},
		[]string{report.Replies[0].ID, report.Replies[1].ID, report.Replies[2].ID})
}

func TestRepliesHonorsCount(t *testing.T) {
	h := newHarness(t)
	h.login()

	options := decodeJSON[[]models.ReplyOption](t, h.mustRun("-o", "json", "replies", "-n", "2", "hello"))
	assert.Len(t, options, 2)
}

func TestDashboardOverview(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.srv.SetUserPosts([]models.Post{{
		ID:        "p1",
		Text:      "hello",
		CreatedAt: models.NewTimestamp(time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)),
		LikeCount: 4,
	}})

	o := decodeJSON[panels.Overview](t, h.mustRun("-o", "json", "dashboard"))
	assert.Equal(t, apitest.DemoUsername, o.Username)
	assert.Equal(t, 1, o.TotalPosts)
	assert.Equal(t, 3, o.TotalSuggestions)
	assert.Equal(t, 1, o.HighConfidence)
	assert.InDelta(t, 4.0, o.AverageEngagement, 1e-9)

	table := h.mustRun("dashboard")
	assert.Contains(t, table, "Popular topics")
}

func TestDashboardRequiresLogin(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("dashboard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")
	assert.Zero(t, h.srv.TotalCalls())
}

func TestExpiredSessionClearsCredential(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.srv.Expire()

	_, err := h.run("trending")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Session expired")

	_, err = h.run("whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")
}

func TestPublishReplyRepost(t *testing.T) {
	h := newHarness(t)
	h.login()

	h.mustRun("publish", "Hello", "world")
	h.mustRun("reply", "t1", "Congrats!")
	h.mustRun("repost", "t2", "Worth", "reading")

	assert.Equal(t, []string{"Hello world", "Congrats!", "Worth reading"}, h.srv.Published())
	assert.Equal(t, 1, h.srv.Calls(apitest.RouteReply))
	assert.Equal(t, 1, h.srv.Calls(apitest.RouteRepost))
}

func TestConnectAndSubscription(t *testing.T) {
	h := newHarness(t)
	h.login()

	out := h.mustRun("connect", "--handle", "@ada_x", "--token", "tok", "--secret", "sec")
	assert.Contains(t, out, "ada_x")

	user := decodeJSON[models.User](t, h.mustRun("-o", "json", "subscription", "pro"))
	assert.Equal(t, models.TierPro, user.SubscriptionTier)

	_, err := h.run("subscription", "gold")
	require.Error(t, err)
	assert.Equal(t, 1, h.srv.Calls(apitest.RouteSubscription), "invalid tier is rejected locally")
}

func TestPaymentFlow(t *testing.T) {
	h := newHarness(t)

	price := decodeJSON[map[string]any](t, h.mustRun("-o", "json", "pay", "price", "-n", "2"))
	assert.Equal(t, "0.03", price["amount"])
	assert.Zero(t, h.srv.TotalCalls())

	h.login()
	req := decodeJSON[models.PaymentRequest](t, h.mustRun("-o", "json", "pay", "request", "-n", "3"))
	assert.Equal(t, "0.045", req.Amount.String())
	assert.Equal(t, models.PaymentPending, req.Status)

	_, err := h.run("pay", "verify", req.Reference(), "not-a-hash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Transaction verification failed")

	out := h.mustRun("pay", "verify", req.Reference(), "0xfeed")
	assert.Contains(t, out, "Payment verified")
	assert.Contains(t, out, "Suggestions remaining: 3")

	status := decodeJSON[models.PaymentRequest](t, h.mustRun("-o", "json", "pay", "status", req.Reference()))
	assert.Equal(t, models.PaymentCompleted, status.Status)

	history := h.mustRun("-o", "yaml", "pay", "history")
	assert.Contains(t, history, "status: completed")
}

func TestConfigSetAndShow(t *testing.T) {
	h := newHarness(t)

	h.mustRun("config", "set", "feed_size", "25")
	cfg := decodeJSON[config.Config](t, h.mustRun("-o", "json", "config", "show"))
	assert.Equal(t, 25, cfg.FeedSize)
	assert.Equal(t, h.srv.URL, cfg.APIURL, "flag overrides the settings file")

	_, err := h.run("config", "set", "feed_size", "0")
	require.Error(t, err)
	_, err = h.run("config", "set", "colour", "blue")
	require.Error(t, err)

	h.mustRun("config", "validate")
	path := h.mustRun("config", "path")
	assert.Contains(t, path, "config.json")
}

func TestTrendingUsesConfiguredFeedSize(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.mustRun("config", "set", "feed_size", "2")

	posts := decodeJSON[[]models.Post](t, h.mustRun("-o", "json", "trending"))
	assert.Len(t, posts, 2)
	posts = decodeJSON[[]models.Post](t, h.mustRun("-o", "json", "trending", "-n", "3"))
	assert.Len(t, posts, 3)
}

func TestUnknownOutputFormat(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("-o", "xml", "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestJoinArgs(t *testing.T) {
	if diff := cmp.Diff("a b c", joinArgs([]string{" a", "b", "c "})); diff != "" {
		t.Fatalf("joinArgs (-want +got):\n%s", diff)
	}
}
