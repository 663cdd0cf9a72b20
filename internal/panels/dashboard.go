package panels

import (
	"context"
	"sort"
	"time"

	"github.com/dyike/xagent/internal/api"
	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/store"
)

const dashboardPostCount = 10

// DayEngagement sums the interactions of posts published on one weekday.
type DayEngagement struct {
	Day     time.Weekday
	Posts   int
	Likes   int
	Shares  int
	Replies int
}

func (d DayEngagement) Total() int { return d.Likes + d.Shares + d.Replies }

type TopicCount struct {
	Topic string
	Count int
}

// Overview is the dashboard summary of one snapshot.
type Overview struct {
	Username             string
	Tier                 models.SubscriptionTier
	SuggestionsRemaining int
	TotalSuggestions     int
	HighConfidence       int
	TotalPosts           int
	AverageEngagement    float64
	Week                 [7]DayEngagement
	Topics               []TopicCount
}

var week = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// WeekdayEngagement buckets posts by weekday, Monday first.
func WeekdayEngagement(posts []models.Post) [7]DayEngagement {
	var out [7]DayEngagement
	for i, d := range week {
		out[i].Day = d
	}
	for _, p := range posts {
		if p.CreatedAt.IsZero() {
			continue
		}
		i := (int(p.CreatedAt.Weekday()) + 6) % 7
		out[i].Posts++
		out[i].Likes += p.LikeCount
		out[i].Shares += p.ShareCount
		out[i].Replies += p.ReplyCount
	}
	return out
}

// PopularTopics counts topics across suggestions, most frequent first, ties
// by name. limit <= 0 keeps all.
func PopularTopics(suggestions []models.PostSuggestion, limit int) []TopicCount {
	counts := map[string]int{}
	for _, s := range suggestions {
		for _, t := range s.Topics {
			counts[t]++
		}
	}
	out := make([]TopicCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, TopicCount{Topic: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Topic < out[j].Topic
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Summarize builds the overview for snap.
func Summarize(snap store.Snapshot, threshold float64) Overview {
	o := Overview{
		TotalSuggestions: len(snap.Suggestions),
		HighConfidence:   len(HighConfidence(snap.Suggestions, threshold)),
		TotalPosts:       len(snap.UserPosts),
		Week:             WeekdayEngagement(snap.UserPosts),
		Topics:           PopularTopics(snap.Suggestions, 5),
	}
	if snap.User != nil {
		o.Username = snap.User.Username
		o.Tier = snap.User.SubscriptionTier
		o.SuggestionsRemaining = snap.User.SuggestionsRemaining
	}
	if len(snap.UserPosts) > 0 {
		total := 0
		for _, p := range snap.UserPosts {
			total += p.Engagement()
		}
		o.AverageEngagement = float64(total) / float64(len(snap.UserPosts))
	}
	return o
}

type PostsResult struct {
	Posts []models.Post
	Err   error
}

// DashboardPanel loads the user's own posts for the overview.
type DashboardPanel struct {
	api ContentAPI
	st  Dispatcher

	threshold float64
	loading   bool
	err       string
}

func NewDashboardPanel(c ContentAPI, st Dispatcher, threshold float64) *DashboardPanel {
	return &DashboardPanel{api: c, st: st, threshold: threshold}
}

func (p *DashboardPanel) SetThreshold(v float64) { p.threshold = v }
func (p *DashboardPanel) Loading() bool          { return p.loading }
func (p *DashboardPanel) Error() string          { return p.err }

func (p *DashboardPanel) Overview() Overview {
	return Summarize(p.st.Snapshot(), p.threshold)
}

// BeginLoad picks whose posts to fetch: the linked X handle, else the
// account username.
func (p *DashboardPanel) BeginLoad() (string, error) {
	if p.loading {
		return "", ErrBusy
	}
	snap := p.st.Snapshot()
	if snap.User == nil {
		return "", &api.Error{Kind: api.KindNoCredential, Op: "load posts", Message: "Not signed in"}
	}
	name := snap.User.Username
	if h, ok := snap.User.Handle(models.PlatformX); ok {
		name = h
	}
	p.loading = true
	p.err = ""
	return name, nil
}

func (p *DashboardPanel) RunLoad(ctx context.Context, username string) PostsResult {
	posts, err := p.api.GetUserPosts(ctx, username, dashboardPostCount)
	return PostsResult{Posts: posts, Err: err}
}

func (p *DashboardPanel) CompleteLoad(res PostsResult) {
	p.loading = false
	if res.Err != nil {
		p.err = api.MessageOf(res.Err)
		signOutOnExpiry(p.st, res.Err)
		return
	}
	p.st.Dispatch(store.SetUserPosts{Posts: res.Posts})
}

func (p *DashboardPanel) Load(ctx context.Context) error {
	name, err := p.BeginLoad()
	if err != nil {
		return err
	}
	res := p.RunLoad(ctx, name)
	p.CompleteLoad(res)
	return res.Err
}
