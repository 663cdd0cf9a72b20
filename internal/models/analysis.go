package models

import (
	"encoding/json"
	"sort"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

type Stance string

const (
	StanceSupportive Stance = "supportive"
	StanceAgainst    Stance = "against"
	StanceNeutral    Stance = "neutral"
)

type Engagement struct {
	EstimatedScore float64 `json:"estimated" yaml:"estimated_score"`
	Explanation    string  `json:"reason" yaml:"explanation"`
}

type Risk struct {
	Level       RiskLevel `json:"level" yaml:"level"`
	Explanation string    `json:"reason" yaml:"explanation"`
}

// PostAnalysis is the sentiment/engagement/risk report for a draft.
type PostAnalysis struct {
	Sentiment  Sentiment  `json:"sentiment" yaml:"sentiment"`
	Topics     []string   `json:"topics" yaml:"topics"`
	Engagement Engagement `json:"engagement" yaml:"engagement"`
	Risk       Risk       `json:"riskAssessment" yaml:"risk"`
}

// analysisWire covers both the flat layout served by the analysis route and
// the nested layout.
type analysisWire struct {
	Sentiment          Sentiment   `json:"sentiment"`
	Topics             []string    `json:"topics"`
	Engagement         *Engagement `json:"engagement"`
	Risk               *Risk       `json:"riskAssessment"`
	EngagementEstimate *float64    `json:"engagement_estimate"`
	EngagementReason   string      `json:"engagement_reason"`
	RiskLevel          RiskLevel   `json:"risk_level"`
	RiskReason         string      `json:"risk_reason"`
}

func (a *PostAnalysis) UnmarshalJSON(data []byte) error {
	var w analysisWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := PostAnalysis{
		Sentiment: w.Sentiment,
		Topics:    w.Topics,
	}
	switch {
	case w.Engagement != nil:
		out.Engagement = *w.Engagement
	case w.EngagementEstimate != nil:
		out.Engagement = Engagement{EstimatedScore: *w.EngagementEstimate, Explanation: w.EngagementReason}
	}
	switch {
	case w.Risk != nil:
		out.Risk = *w.Risk
	default:
		out.Risk = Risk{Level: w.RiskLevel, Explanation: w.RiskReason}
	}
	if out.Sentiment == "" {
		out.Sentiment = SentimentNeutral
	}
	if out.Risk.Level == "" {
		out.Risk.Level = RiskLow
	}
	*a = out
	return nil
}

// ReplyOption is one generated reply tied to an analysis run.
type ReplyOption struct {
	ID         string  `json:"id" yaml:"id"`
	Text       string  `json:"text" yaml:"text"`
	Stance     Stance  `json:"stance" yaml:"stance"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Mention    *bool   `json:"is_for_mention,omitempty" yaml:"mention,omitempty"`
	Trending   *bool   `json:"is_for_trending,omitempty" yaml:"trending,omitempty"`
}

// RankReplies orders options by confidence, highest first. Ties keep the
// order the backend returned.
func RankReplies(options []ReplyOption) []ReplyOption {
	ranked := append([]ReplyOption(nil), options...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})
	return ranked
}
