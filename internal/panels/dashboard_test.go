package panels

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/xagent/internal/api/apitest"
	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/store"
)

func postOn(id string, day time.Time, likes, shares, replies int) models.Post {
	return models.Post{
		ID:         id,
		CreatedAt:  models.NewTimestamp(day),
		LikeCount:  likes,
		ShareCount: shares,
		ReplyCount: replies,
	}
}

func TestWeekdayEngagement(t *testing.T) {
	monday := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	posts := []models.Post{
		postOn("a", monday, 4, 3, 2),
		postOn("b", monday.AddDate(0, 0, 7), 1, 0, 0),
		postOn("c", monday.AddDate(0, 0, 6), 9, 7, 6),
		{ID: "undated", LikeCount: 100},
	}

	week := WeekdayEngagement(posts)
	assert.Equal(t, time.Monday, week[0].Day)
	assert.Equal(t, time.Sunday, week[6].Day)
	assert.Equal(t, 2, week[0].Posts)
	assert.Equal(t, 10, week[0].Total())
	assert.Equal(t, 22, week[6].Total())
	assert.Zero(t, week[3].Posts)
}

func TestPopularTopics(t *testing.T) {
	got := PopularTopics([]models.PostSuggestion{
		{Topics: []string{"AI", "Tech"}},
		{Topics: []string{"AI", "Crypto"}},
		{Topics: []string{"Tech", "AI"}},
	}, 2)
	assert.Equal(t, []TopicCount{{"AI", 3}, {"Tech", 2}}, got)
}

func TestDashboardLoadsOwnPosts(t *testing.T) {
	h := signedIn(t)
	h.srv.SetUserPosts([]models.Post{
		postOn("p1", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 5, 1, 1),
		postOn("p2", time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), 3, 0, 0),
	})
	h.st.Dispatch(store.SetSuggestions{Suggestions: apitest.DefaultSuggestions()})
	p := NewDashboardPanel(h.client.Content(), h.st, 0.85)

	require.NoError(t, p.Load(context.Background()))
	o := p.Overview()
	assert.Equal(t, apitest.DemoUsername, o.Username)
	assert.Equal(t, 2, o.TotalPosts)
	assert.Equal(t, 5.0, o.AverageEngagement)
	assert.Equal(t, 3, o.TotalSuggestions)
	assert.Equal(t, 1, o.HighConfidence)
	assert.Equal(t, 1, o.Week[1].Posts)
	assert.Len(t, o.Topics, 5)
}

func TestDashboardRequiresUser(t *testing.T) {
	h := newHarness(t)
	p := NewDashboardPanel(h.client.Content(), h.st, 0.85)
	require.Error(t, p.Load(context.Background()))
	assert.Zero(t, h.srv.TotalCalls())
}
