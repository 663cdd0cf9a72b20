package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dyike/xagent/internal/models"
)

// ContentClient covers the feed, drafting and publishing calls.
type ContentClient struct {
	c *Client
}

// ReplyRequest parameterises GenerateReplyOptions.
type ReplyRequest struct {
	Text          string  `json:"text"`
	Count         int     `json:"count"`
	IsMention     bool    `json:"is_mention"`
	TrendingScore float64 `json:"trending_score"`
}

type postRef struct {
	TweetID string `json:"tweet_id"`
	Text    string `json:"text"`
}

func (cc *ContentClient) GetTrendingPosts(ctx context.Context, count int) ([]models.Post, error) {
	const op = "get trending posts"
	if err := requirePositive(op, "count", count); err != nil {
		return nil, err
	}
	var posts []models.Post
	err := cc.c.do(ctx, call{
		op:       op,
		method:   http.MethodGet,
		path:     "/api/twitter/trending",
		auth:     true,
		query:    url.Values{"count": {strconv.Itoa(count)}},
		fallback: "Failed to get trending tweets",
		out:      &posts,
	})
	return posts, err
}

func (cc *ContentClient) AnalyzePost(ctx context.Context, text string) (models.PostAnalysis, error) {
	const op = "analyze post"
	if err := requireText(op, "text", text); err != nil {
		return models.PostAnalysis{}, err
	}
	var analysis models.PostAnalysis
	err := cc.c.do(ctx, call{
		op:       op,
		method:   http.MethodPost,
		path:     "/api/twitter/analyze",
		auth:     true,
		body:     map[string]string{"text": text},
		fallback: "Failed to analyze tweet",
		out:      &analysis,
	})
	return analysis, err
}

// GenerateReplyOptions asks for count candidate replies to text. The result
// is returned in backend order; see models.RankReplies.
func (cc *ContentClient) GenerateReplyOptions(ctx context.Context, req ReplyRequest) ([]models.ReplyOption, error) {
	const op = "generate reply options"
	if err := requireText(op, "text", req.Text); err != nil {
		return nil, err
	}
	if err := requirePositive(op, "count", req.Count); err != nil {
		return nil, err
	}
	if req.TrendingScore < 0 || req.TrendingScore > 1 {
		return nil, Validation(op, "trending score must be between 0 and 1")
	}
	var options []models.ReplyOption
	err := cc.c.do(ctx, call{
		op:       op,
		method:   http.MethodPost,
		path:     "/api/twitter/reply-options",
		auth:     true,
		body:     req,
		fallback: "Failed to generate reply options",
		out:      &options,
	})
	return options, err
}

// GetSuggestions generates count drafts, optionally steered by topics.
func (cc *ContentClient) GetSuggestions(ctx context.Context, count int, topics []string) ([]models.PostSuggestion, error) {
	const op = "get suggestions"
	if err := requirePositive(op, "count", count); err != nil {
		return nil, err
	}
	q := url.Values{"count": {strconv.Itoa(count)}}
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			q.Add("topics", t)
		}
	}
	var suggestions []models.PostSuggestion
	err := cc.c.do(ctx, call{
		op:       op,
		method:   http.MethodGet,
		path:     "/api/twitter/suggestions",
		auth:     true,
		query:    q,
		fallback: "Failed to get tweet suggestions",
		out:      &suggestions,
	})
	return suggestions, err
}

func (cc *ContentClient) GetUserPosts(ctx context.Context, username string, count int) ([]models.Post, error) {
	const op = "get user posts"
	if err := requireText(op, "username", username); err != nil {
		return nil, err
	}
	if err := requirePositive(op, "count", count); err != nil {
		return nil, err
	}
	var posts []models.Post
	err := cc.c.do(ctx, call{
		op:       op,
		method:   http.MethodGet,
		path:     "/api/twitter/user-tweets",
		auth:     true,
		query:    url.Values{"username": {username}, "count": {strconv.Itoa(count)}},
		fallback: "Failed to get user tweets",
		out:      &posts,
	})
	return posts, err
}

func (cc *ContentClient) PublishPost(ctx context.Context, text string) (models.Post, error) {
	const op = "publish post"
	if err := requireText(op, "text", text); err != nil {
		return models.Post{}, err
	}
	var post models.Post
	err := cc.c.do(ctx, call{
		op:       op,
		method:   http.MethodPost,
		path:     "/api/twitter/tweet",
		auth:     true,
		body:     map[string]string{"text": text},
		fallback: "Failed to post tweet",
		out:      &post,
	})
	return post, err
}

func (cc *ContentClient) ReplyToPost(ctx context.Context, postID, text string) (models.Post, error) {
	return cc.postAgainst(ctx, "reply to post", "/api/twitter/reply", "Failed to reply to tweet", postID, text)
}

func (cc *ContentClient) RepostWithComment(ctx context.Context, postID, text string) (models.Post, error) {
	return cc.postAgainst(ctx, "repost with comment", "/api/twitter/retweet", "Failed to retweet with comment", postID, text)
}

func (cc *ContentClient) postAgainst(ctx context.Context, op, path, fallback, postID, text string) (models.Post, error) {
	if err := requireText(op, "post id", postID); err != nil {
		return models.Post{}, err
	}
	if err := requireText(op, "text", text); err != nil {
		return models.Post{}, err
	}
	var post models.Post
	err := cc.c.do(ctx, call{
		op:       op,
		method:   http.MethodPost,
		path:     path,
		auth:     true,
		body:     postRef{TweetID: postID, Text: text},
		fallback: fallback,
		out:      &post,
	})
	return post, err
}
