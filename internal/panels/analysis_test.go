package panels

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/xagent/internal/api"
	"github.com/dyike/xagent/internal/api/apitest"
	"github.com/dyike/xagent/internal/models"
)

func TestAnalyzeEmptyTextSkipsNetwork(t *testing.T) {
	h := signedIn(t)
	p := NewAnalysisPanel(h.client.Content(), h.st)

	for _, text := range []string{"", "   ", "\n\t"} {
		p.SetText(text)
		err := p.Analyze(context.Background())
		assert.ErrorIs(t, err, api.ErrValidation)
	}
	assert.Zero(t, h.srv.Calls(apitest.RouteAnalyze))
	assert.Zero(t, h.srv.Calls(apitest.RouteReplyOptions))
	assert.NotEmpty(t, p.Error())
}

func TestAnalyzeRanksReplies(t *testing.T) {
	h := signedIn(t)
	p := NewAnalysisPanel(h.client.Content(), h.st)
	p.SetText("AI will change software")

	require.NoError(t, p.Analyze(context.Background()))
	require.NotNil(t, p.Analysis())
	assert.Equal(t, models.SentimentPositive, p.Analysis().Sentiment)
	assert.Equal(t, models.RiskLow, p.Analysis().Risk.Level)

	opts := p.Options()
	require.Len(t, opts, 3)
	assert.Equal(t, 0.85, opts[0].Confidence)
	assert.Equal(t, 0.78, opts[1].Confidence)
	assert.Equal(t, 0.65, opts[2].Confidence)
	assert.False(t, p.Analyzing())
}

func TestStaleAnalysisIsDiscarded(t *testing.T) {
	h := signedIn(t)
	p := NewAnalysisPanel(h.client.Content(), h.st)

	p.SetText("first")
	first, err := p.Begin()
	require.NoError(t, err)
	p.SetText("second")
	second, err := p.Begin()
	require.NoError(t, err)

	firstRes := p.Execute(context.Background(), first)
	secondRes := p.Execute(context.Background(), second)

	assert.True(t, p.Complete(secondRes))
	assert.False(t, p.Complete(firstRes))
	assert.NotNil(t, p.Analysis())
	assert.False(t, p.Analyzing())
}

func TestNewRunClearsPreviousResult(t *testing.T) {
	h := signedIn(t)
	p := NewAnalysisPanel(h.client.Content(), h.st)
	p.SetText("draft")
	require.NoError(t, p.Analyze(context.Background()))
	require.NotNil(t, p.Analysis())

	_, err := p.Begin()
	require.NoError(t, err)
	assert.Nil(t, p.Analysis())
	assert.Empty(t, p.Options())
	assert.True(t, p.Analyzing())
}
