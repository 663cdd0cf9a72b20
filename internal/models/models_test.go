package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampAcceptsNaiveISO(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-05T10:20:30.123456"`), &ts))
	assert.Equal(t, 2024, ts.Year())
	assert.Equal(t, time.March, ts.Month())
	assert.Equal(t, 30, ts.Second())

	require.NoError(t, json.Unmarshal([]byte(`"2024-03-05T10:20:30Z"`), &ts))
	assert.Equal(t, 10, ts.Hour())

	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestUserDecodesPlatformHandles(t *testing.T) {
	payload := `{
		"id": "user_1", "username": "ada", "email": "a@b.com",
		"subscription_tier": "pro", "suggestions_remaining": 4,
		"x_username": "ada_x", "telegram_username": null,
		"wallet_address": "0xabc",
		"created_at": "2024-01-01T00:00:00", "updated_at": "2024-01-02T00:00:00"
	}`

	var u User
	require.NoError(t, json.Unmarshal([]byte(payload), &u))
	assert.Equal(t, TierPro, u.SubscriptionTier)
	assert.Equal(t, 4, u.SuggestionsRemaining)

	handle, ok := u.Handle(PlatformX)
	assert.True(t, ok)
	assert.Equal(t, "ada_x", handle)
	_, ok = u.Handle(PlatformTelegram)
	assert.False(t, ok)
	assert.Equal(t, []Platform{PlatformX}, u.Connected())

	clone := u.Clone()
	*clone.X = "changed"
	assert.Equal(t, "ada_x", *u.X, "clone must not share handle storage")
}

func TestAnalysisDecodesFlatAndNested(t *testing.T) {
	flat := `{"sentiment":"negative","topics":["AI"],"engagement_estimate":0.4,
		"engagement_reason":"short","risk_level":"high","risk_reason":"insult"}`
	nested := `{"sentiment":"positive","topics":["AI"],"engagement":{"estimated":0.75,"reason":"hashtags"},
		"riskAssessment":{"level":"low","reason":"none"}}`

	var a PostAnalysis
	require.NoError(t, json.Unmarshal([]byte(flat), &a))
	assert.Equal(t, SentimentNegative, a.Sentiment)
	assert.Equal(t, 0.4, a.Engagement.EstimatedScore)
	assert.Equal(t, RiskHigh, a.Risk.Level)
	assert.Equal(t, "insult", a.Risk.Explanation)

	require.NoError(t, json.Unmarshal([]byte(nested), &a))
	assert.Equal(t, SentimentPositive, a.Sentiment)
	assert.Equal(t, 0.75, a.Engagement.EstimatedScore)
	assert.Equal(t, "hashtags", a.Engagement.Explanation)
	assert.Equal(t, RiskLow, a.Risk.Level)
}

func TestRankReplies(t *testing.T) {
	in := []ReplyOption{
		{ID: "1", Confidence: 0.65},
		{ID: "2", Confidence: 0.85},
		{ID: "3", Confidence: 0.65},
		{ID: "4", Confidence: 0.78},
	}
	ranked := RankReplies(in)

	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"2", "4", "1", "3"}, ids)
	assert.Equal(t, "1", in[0].ID, "input must not be reordered")
}

func TestPostEngagement(t *testing.T) {
	score := 0.7
	p := Post{LikeCount: 10, ShareCount: 5, ReplyCount: 2, TrendingScore: &score}
	assert.Equal(t, 17, p.Engagement())
	assert.Equal(t, 0.7, p.Score())
	assert.False(t, p.IsMention())
}

func TestPaymentRequestDecodesAmount(t *testing.T) {
	var p PaymentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"id":"tx_1","amount":0.045,"item_type":"tweet_suggestion","status":"pending","created_at":"2024-01-01T00:00:00"}`), &p))
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("0.045")))
	assert.Equal(t, "tx_1", p.Reference())
	assert.Equal(t, PaymentPending, p.Status)
}
