package panels

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyike/xagent/config"
	"github.com/dyike/xagent/internal/api"
	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/store"
)

type SuggestionsView int

const (
	ViewAll SuggestionsView = iota
	ViewHighConfidence
	ViewByTopic
)

func (v SuggestionsView) String() string {
	switch v {
	case ViewHighConfidence:
		return "high confidence"
	case ViewByTopic:
		return "by topic"
	default:
		return "all"
	}
}

// HighConfidence keeps suggestions strictly above threshold.
func HighConfidence(in []models.PostSuggestion, threshold float64) []models.PostSuggestion {
	out := []models.PostSuggestion{}
	for _, s := range in {
		if s.Confidence > threshold {
			out = append(out, s)
		}
	}
	return out
}

// ByTopic keeps suggestions with a topic containing query, ignoring case.
// An empty query keeps everything.
func ByTopic(in []models.PostSuggestion, query string) []models.PostSuggestion {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]models.PostSuggestion{}, in...)
	}
	out := []models.PostSuggestion{}
	for _, s := range in {
		for _, t := range s.Topics {
			if strings.Contains(strings.ToLower(t), q) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// SuggestionsPanel lists drafts and turns them into posts.
type SuggestionsPanel struct {
	api ContentAPI
	st  Dispatcher

	batch     int
	threshold float64

	view  SuggestionsView
	query string

	loading    bool
	generating bool
	publishing string
	err        string
}

func NewSuggestionsPanel(c ContentAPI, st Dispatcher) *SuggestionsPanel {
	return &SuggestionsPanel{
		api:       c,
		st:        st,
		batch:     config.DefaultSuggestionBatch,
		threshold: config.DefaultConfidenceThreshold,
	}
}

// Configure applies the batch size and high-confidence threshold.
func (p *SuggestionsPanel) Configure(batch int, threshold float64) {
	if batch > 0 {
		p.batch = batch
	}
	if threshold >= 0 && threshold <= 1 {
		p.threshold = threshold
	}
}

func (p *SuggestionsPanel) Threshold() float64         { return p.threshold }
func (p *SuggestionsPanel) Loading() bool              { return p.loading }
func (p *SuggestionsPanel) Generating() bool           { return p.generating }
func (p *SuggestionsPanel) Publishing() string         { return p.publishing }
func (p *SuggestionsPanel) Error() string              { return p.err }
func (p *SuggestionsPanel) View() SuggestionsView      { return p.view }
func (p *SuggestionsPanel) Query() string              { return p.query }
func (p *SuggestionsPanel) SetView(v SuggestionsView)  { p.view = v }
func (p *SuggestionsPanel) SetQuery(q string)          { p.query = q }

// All returns every suggestion in the store.
func (p *SuggestionsPanel) All() []models.PostSuggestion {
	return p.st.Snapshot().Suggestions
}

func (p *SuggestionsPanel) HighConfidence() []models.PostSuggestion {
	return HighConfidence(p.All(), p.threshold)
}

func (p *SuggestionsPanel) ByTopic(query string) []models.PostSuggestion {
	return ByTopic(p.All(), query)
}

// Visible returns the suggestions for the current view.
func (p *SuggestionsPanel) Visible() []models.PostSuggestion {
	switch p.view {
	case ViewHighConfidence:
		return p.HighConfidence()
	case ViewByTopic:
		return p.ByTopic(p.query)
	default:
		return p.All()
	}
}

// SuggestionsLoad is one batch fetch captured by BeginLoad.
type SuggestionsLoad struct {
	Batch int
}

type SuggestionsResult struct {
	Suggestions []models.PostSuggestion
	Err         error
}

func (p *SuggestionsPanel) BeginLoad() (SuggestionsLoad, error) {
	if p.loading {
		return SuggestionsLoad{}, ErrBusy
	}
	p.loading = true
	p.err = ""
	return SuggestionsLoad{Batch: p.batch}, nil
}

func (p *SuggestionsPanel) RunLoad(ctx context.Context, req SuggestionsLoad) SuggestionsResult {
	s, err := p.api.GetSuggestions(ctx, req.Batch, nil)
	return SuggestionsResult{Suggestions: s, Err: err}
}

func (p *SuggestionsPanel) CompleteLoad(res SuggestionsResult) {
	p.loading = false
	if res.Err != nil {
		p.failed(res.Err)
		return
	}
	p.st.Dispatch(store.SetSuggestions{Suggestions: res.Suggestions})
}

// Load replaces the store's suggestions with a fresh batch.
func (p *SuggestionsPanel) Load(ctx context.Context) error {
	req, err := p.BeginLoad()
	if err != nil {
		return err
	}
	res := p.RunLoad(ctx, req)
	p.CompleteLoad(res)
	return res.Err
}

func (p *SuggestionsPanel) BeginGenerate() error {
	if p.generating {
		return ErrBusy
	}
	p.generating = true
	p.err = ""
	return nil
}

func (p *SuggestionsPanel) RunGenerate(ctx context.Context, topics []string) SuggestionsResult {
	s, err := p.api.GetSuggestions(ctx, 1, topics)
	return SuggestionsResult{Suggestions: s, Err: err}
}

func (p *SuggestionsPanel) CompleteGenerate(res SuggestionsResult) {
	p.generating = false
	if res.Err != nil {
		p.failed(res.Err)
		return
	}
	if len(res.Suggestions) == 0 {
		p.err = "No suggestion was generated"
		return
	}
	p.st.Dispatch(store.AddSuggestion{Suggestion: res.Suggestions[0]})
}

// Generate asks for one new suggestion and puts it at the top of the list.
func (p *SuggestionsPanel) Generate(ctx context.Context, topics []string) error {
	if err := p.BeginGenerate(); err != nil {
		return err
	}
	res := p.RunGenerate(ctx, topics)
	p.CompleteGenerate(res)
	return res.Err
}

// Reject drops a suggestion. Unknown ids are ignored.
func (p *SuggestionsPanel) Reject(id string) {
	p.st.Dispatch(store.RemoveSuggestion{ID: id})
}

// ApproveRequest is an approval captured by BeginApprove.
type ApproveRequest struct {
	ID   string
	Text string
}

type ApproveResult struct {
	ID   string
	Post models.Post
	Err  error
}

// BeginApprove resolves the text to publish: text when non-empty (an edited
// draft), otherwise the stored suggestion's text.
func (p *SuggestionsPanel) BeginApprove(id, text string) (ApproveRequest, error) {
	if p.publishing != "" {
		return ApproveRequest{}, ErrBusy
	}
	var found *models.PostSuggestion
	for _, s := range p.All() {
		if s.ID == id {
			s := s
			found = &s
			break
		}
	}
	if found == nil {
		return ApproveRequest{}, api.Validation("approve", fmt.Sprintf("no suggestion with id %q", id))
	}
	if strings.TrimSpace(text) == "" {
		text = found.Text
	}
	p.publishing = id
	p.err = ""
	return ApproveRequest{ID: id, Text: text}, nil
}

func (p *SuggestionsPanel) RunApprove(ctx context.Context, req ApproveRequest) ApproveResult {
	post, err := p.api.PublishPost(ctx, req.Text)
	return ApproveResult{ID: req.ID, Post: post, Err: err}
}

func (p *SuggestionsPanel) CompleteApprove(res ApproveResult) {
	p.publishing = ""
	if res.Err != nil {
		p.failed(res.Err)
		return
	}
	p.st.Dispatch(store.RemoveSuggestion{ID: res.ID})
}

// Approve publishes a suggestion and removes it from the list.
func (p *SuggestionsPanel) Approve(ctx context.Context, id, text string) (models.Post, error) {
	req, err := p.BeginApprove(id, text)
	if err != nil {
		return models.Post{}, err
	}
	res := p.RunApprove(ctx, req)
	p.CompleteApprove(res)
	return res.Post, res.Err
}

func (p *SuggestionsPanel) failed(err error) {
	p.err = api.MessageOf(err)
	signOutOnExpiry(p.st, err)
}
