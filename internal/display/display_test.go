package display

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/panels"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "héllo w...", Truncate("héllo wörld again", 10))
}

func TestWrap(t *testing.T) {
	got := Wrap("one two three four five", 10, "  ")
	for _, line := range strings.Split(got, "\n") {
		assert.LessOrEqual(t, len(line), 10)
		assert.True(t, strings.HasPrefix(line, "  "))
	}
	assert.Equal(t, "", Wrap("   ", 10, ""))
}

func TestBar(t *testing.T) {
	assert.Equal(t, "", Bar(5, 0, 10))
	assert.Equal(t, strings.Repeat("█", 10), Bar(8, 8, 10))
	assert.Equal(t, "█", Bar(1, 1000, 10))
	assert.Equal(t, "", Bar(0, 10, 10))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)
	f, err = ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteEncodings(t *testing.T) {
	p := models.PaymentRequest{ID: "tx_1", Amount: decimal.RequireFromString("0.045"), Status: models.PaymentPending}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, p, nil))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "tx_1", decoded["id"])
	assert.Equal(t, "0.045", decoded["amount"])

	buf.Reset()
	require.NoError(t, Write(&buf, FormatYAML, p, nil))
	var y map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &y))
	assert.Equal(t, "tx_1", y["id"])
	assert.Equal(t, "pending", y["status"])

	buf.Reset()
	require.NoError(t, Write(&buf, FormatTable, p, func(w io.Writer) { w.Write([]byte("table")) }))
	assert.Equal(t, "table", buf.String())
}

func TestRenderersMentionKeyFields(t *testing.T) {
	x := "ada_x"
	u := models.User{Username: "ada", Email: "a@b.com", SubscriptionTier: models.TierPro, SuggestionsRemaining: 2}
	u.X = &x
	out := User(u)
	assert.Contains(t, out, "ada_x")
	assert.Contains(t, out, "pro")

	out = Suggestions([]models.PostSuggestion{{ID: "7", Text: "Hello world", Topics: []string{"AI"}, Confidence: 0.9}}, 0.85)
	assert.Contains(t, out, "#7")
	assert.Contains(t, out, "Hello world")

	out = Replies([]models.ReplyOption{{Text: "Agreed", Stance: models.StanceSupportive, Confidence: 0.85}})
	assert.Contains(t, out, "supportive 85%")

	out = Analysis(models.PostAnalysis{Sentiment: models.SentimentPositive, Risk: models.Risk{Level: models.RiskHigh}})
	assert.Contains(t, out, "positive")
	assert.Contains(t, out, "high")

	out = Overview(panels.Overview{Username: "ada", Week: panels.WeekdayEngagement(nil), Topics: []panels.TopicCount{{Topic: "AI", Count: 3}}})
	assert.Contains(t, out, "Mon")
	assert.Contains(t, out, "AI")
}
