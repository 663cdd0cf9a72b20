package panels

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dyike/xagent/config"
	"github.com/dyike/xagent/internal/api"
	"github.com/dyike/xagent/internal/models"
)

// AnalysisRequest is one analysis run captured by Begin.
type AnalysisRequest struct {
	Run           int
	Text          string
	Count         int
	IsMention     bool
	TrendingScore float64
}

type AnalysisResult struct {
	Run      int
	Analysis models.PostAnalysis
	Options  []models.ReplyOption
	Err      error
}

// AnalysisPanel scores a draft and proposes replies to it.
type AnalysisPanel struct {
	api ContentAPI
	st  Dispatcher

	replyCount    int
	text          string
	isMention     bool
	trendingScore float64

	run       int
	analyzing bool
	analysis  *models.PostAnalysis
	options   []models.ReplyOption
	err       string
}

func NewAnalysisPanel(c ContentAPI, st Dispatcher) *AnalysisPanel {
	return &AnalysisPanel{api: c, st: st, replyCount: config.DefaultReplyCount}
}

func (p *AnalysisPanel) SetReplyCount(n int) {
	if n > 0 {
		p.replyCount = n
	}
}

func (p *AnalysisPanel) SetText(text string)          { p.text = text }
func (p *AnalysisPanel) SetMention(v bool)            { p.isMention = v }
func (p *AnalysisPanel) SetTrendingScore(v float64)   { p.trendingScore = v }
func (p *AnalysisPanel) Text() string                 { return p.text }
func (p *AnalysisPanel) Mention() bool                { return p.isMention }
func (p *AnalysisPanel) TrendingScore() float64       { return p.trendingScore }
func (p *AnalysisPanel) Analyzing() bool              { return p.analyzing }
func (p *AnalysisPanel) Error() string                { return p.err }
func (p *AnalysisPanel) Options() []models.ReplyOption { return p.options }

// Analysis returns the latest report, nil before the first successful run.
func (p *AnalysisPanel) Analysis() *models.PostAnalysis { return p.analysis }

// Begin starts a new run. Blank text is rejected without a request. Any
// earlier result is cleared and its completion will be ignored.
func (p *AnalysisPanel) Begin() (AnalysisRequest, error) {
	if err := validText("analyze post", p.text); err != nil {
		p.err = api.MessageOf(err)
		return AnalysisRequest{}, err
	}
	p.run++
	p.analyzing = true
	p.analysis = nil
	p.options = nil
	p.err = ""
	return AnalysisRequest{
		Run:           p.run,
		Text:          p.text,
		Count:         p.replyCount,
		IsMention:     p.isMention,
		TrendingScore: p.trendingScore,
	}, nil
}

// Execute runs the analysis and the reply generation concurrently.
func (p *AnalysisPanel) Execute(ctx context.Context, req AnalysisRequest) AnalysisResult {
	res := AnalysisResult{Run: req.Run}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := p.api.AnalyzePost(gctx, req.Text)
		res.Analysis = a
		return err
	})
	g.Go(func() error {
		opts, err := p.api.GenerateReplyOptions(gctx, api.ReplyRequest{
			Text:          req.Text,
			Count:         req.Count,
			IsMention:     req.IsMention,
			TrendingScore: req.TrendingScore,
		})
		res.Options = models.RankReplies(opts)
		return err
	})
	res.Err = g.Wait()
	return res
}

// Complete applies res unless a newer run has started. It reports whether
// res was applied.
func (p *AnalysisPanel) Complete(res AnalysisResult) bool {
	if res.Run != p.run {
		return false
	}
	p.analyzing = false
	if res.Err != nil {
		p.err = api.MessageOf(res.Err)
		signOutOnExpiry(p.st, res.Err)
		return true
	}
	a := res.Analysis
	p.analysis = &a
	p.options = res.Options
	return true
}

// Analyze runs Begin, Execute and Complete in sequence.
func (p *AnalysisPanel) Analyze(ctx context.Context) error {
	req, err := p.Begin()
	if err != nil {
		return err
	}
	res := p.Execute(ctx, req)
	p.Complete(res)
	return res.Err
}

func validText(op, text string) error {
	if strings.TrimSpace(text) == "" {
		return api.Validation(op, "Please enter some text to analyze")
	}
	return nil
}
