package panels

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dyike/xagent/config"
	"github.com/dyike/xagent/internal/api"
	"github.com/dyike/xagent/internal/models"
)

type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterEngagement
	FilterTech
	FilterCrypto
	FilterKeyword
)

// Filter narrows or orders the trending feed.
type Filter struct {
	Kind    FilterKind
	Keyword string
}

var (
	techTerms   = []string{"ai", "tech", "quantum"}
	cryptoTerms = []string{"crypto", "blockchain"}
)

// ParseFilter accepts all, engagement, tech, crypto or keyword:<text>.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "all":
		return Filter{Kind: FilterAll}, nil
	case "engagement":
		return Filter{Kind: FilterEngagement}, nil
	case "tech":
		return Filter{Kind: FilterTech}, nil
	case "crypto":
		return Filter{Kind: FilterCrypto}, nil
	}
	if k, ok := strings.CutPrefix(s, "keyword:"); ok && strings.TrimSpace(k) != "" {
		return Filter{Kind: FilterKeyword, Keyword: strings.TrimSpace(k)}, nil
	}
	return Filter{}, api.Validation("filter", fmt.Sprintf("unknown filter %q", s))
}

func (f Filter) String() string {
	switch f.Kind {
	case FilterEngagement:
		return "engagement"
	case FilterTech:
		return "tech"
	case FilterCrypto:
		return "crypto"
	case FilterKeyword:
		return "keyword:" + f.Keyword
	default:
		return "all"
	}
}

// Apply returns the posts selected by f. The input is not modified.
func (f Filter) Apply(posts []models.Post) []models.Post {
	switch f.Kind {
	case FilterEngagement:
		out := append([]models.Post{}, posts...)
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Engagement() > out[j].Engagement()
		})
		return out
	case FilterTech:
		return matching(posts, techTerms)
	case FilterCrypto:
		return matching(posts, cryptoTerms)
	case FilterKeyword:
		return matching(posts, []string{f.Keyword})
	default:
		return append([]models.Post{}, posts...)
	}
}

func matching(posts []models.Post, terms []string) []models.Post {
	out := []models.Post{}
	for _, p := range posts {
		text := strings.ToLower(p.Text)
		for _, t := range terms {
			if strings.Contains(text, strings.ToLower(t)) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// TrendingLoad is one feed fetch captured by BeginLoad.
type TrendingLoad struct {
	Run  int
	Size int
}

type TrendingResult struct {
	Run   int
	Posts []models.Post
	Err   error
}

// TrendingPanel shows the trending feed and replies to it.
type TrendingPanel struct {
	api ContentAPI
	st  Dispatcher

	size    int
	filter  Filter
	posts   []models.Post
	run     int
	loading bool
	err     string
}

func NewTrendingPanel(c ContentAPI, st Dispatcher) *TrendingPanel {
	return &TrendingPanel{api: c, st: st, size: config.DefaultFeedSize}
}

func (p *TrendingPanel) SetFeedSize(n int) {
	if n > 0 {
		p.size = n
	}
}

func (p *TrendingPanel) SetFilter(f Filter) { p.filter = f }
func (p *TrendingPanel) Filter() Filter     { return p.filter }
func (p *TrendingPanel) Loading() bool      { return p.loading }
func (p *TrendingPanel) Error() string      { return p.err }

// Posts returns the fetched feed with the current filter applied.
func (p *TrendingPanel) Posts() []models.Post {
	return p.filter.Apply(p.posts)
}

// Find returns a fetched post by id.
func (p *TrendingPanel) Find(id string) (models.Post, bool) {
	for _, post := range p.posts {
		if post.ID == id {
			return post, true
		}
	}
	return models.Post{}, false
}

// BeginLoad starts a fetch with the current feed size. A later BeginLoad
// supersedes an earlier one.
func (p *TrendingPanel) BeginLoad() TrendingLoad {
	p.run++
	p.loading = true
	p.err = ""
	return TrendingLoad{Run: p.run, Size: p.size}
}

func (p *TrendingPanel) RunLoad(ctx context.Context, req TrendingLoad) TrendingResult {
	posts, err := p.api.GetTrendingPosts(ctx, req.Size)
	return TrendingResult{Run: req.Run, Posts: posts, Err: err}
}

// CompleteLoad replaces the feed unless a newer fetch has started.
func (p *TrendingPanel) CompleteLoad(res TrendingResult) bool {
	if res.Run != p.run {
		return false
	}
	p.loading = false
	if res.Err != nil {
		p.err = api.MessageOf(res.Err)
		signOutOnExpiry(p.st, res.Err)
		return true
	}
	p.posts = res.Posts
	return true
}

func (p *TrendingPanel) Load(ctx context.Context) error {
	res := p.RunLoad(ctx, p.BeginLoad())
	p.CompleteLoad(res)
	return res.Err
}

// Refresh fetches the feed again.
func (p *TrendingPanel) Refresh(ctx context.Context) error {
	return p.Load(ctx)
}

// Reply answers a post. It only calls the backend and is safe to run off
// the UI loop.
func (p *TrendingPanel) Reply(ctx context.Context, postID, text string) (models.Post, error) {
	return p.api.ReplyToPost(ctx, postID, text)
}

// Quote reposts a post with a comment.
func (p *TrendingPanel) Quote(ctx context.Context, postID, text string) (models.Post, error) {
	return p.api.RepostWithComment(ctx, postID, text)
}
