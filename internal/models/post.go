package models

// PostSuggestion is a generated draft awaiting approval or rejection.
type PostSuggestion struct {
	ID         string    `json:"id" yaml:"id"`
	Text       string    `json:"text" yaml:"text"`
	Topics     []string  `json:"topics" yaml:"topics"`
	Confidence float64   `json:"confidence" yaml:"confidence"`
	CreatedAt  Timestamp `json:"created_at" yaml:"created_at"`
}

func (s PostSuggestion) Clone() PostSuggestion {
	s.Topics = append([]string(nil), s.Topics...)
	return s
}

// Author is the public profile attached to a post.
type Author struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Handle      string `json:"username" yaml:"handle"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	AvatarURL   string `json:"profile_image_url,omitempty" yaml:"avatar_url,omitempty"`
}

// Post is a published item, either the user's own or from the trending feed.
type Post struct {
	ID            string    `json:"id" yaml:"id"`
	Text          string    `json:"text" yaml:"text"`
	CreatedAt     Timestamp `json:"created_at" yaml:"created_at"`
	LikeCount     int       `json:"likes_count" yaml:"likes"`
	ShareCount    int       `json:"retweets_count" yaml:"shares"`
	ReplyCount    int       `json:"replies_count" yaml:"replies"`
	Author        Author    `json:"author" yaml:"author"`
	Mention       *bool     `json:"is_mention,omitempty" yaml:"mention,omitempty"`
	TrendingScore *float64  `json:"trending_score,omitempty" yaml:"trending_score,omitempty"`
	Platform      *Platform `json:"platform,omitempty" yaml:"platform,omitempty"`
}

// Engagement is the total interaction count used for ranking.
func (p Post) Engagement() int {
	return p.LikeCount + p.ShareCount + p.ReplyCount
}

func (p Post) IsMention() bool {
	return p.Mention != nil && *p.Mention
}

// Score returns the trending score, 0 when the feed did not supply one.
func (p Post) Score() float64 {
	if p.TrendingScore == nil {
		return 0
	}
	return *p.TrendingScore
}

func (p Post) Clone() Post {
	if p.Mention != nil {
		v := *p.Mention
		p.Mention = &v
	}
	if p.TrendingScore != nil {
		v := *p.TrendingScore
		p.TrendingScore = &v
	}
	if p.Platform != nil {
		v := *p.Platform
		p.Platform = &v
	}
	return p
}
