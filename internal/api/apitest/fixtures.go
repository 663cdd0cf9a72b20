package apitest

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/dyike/xagent/internal/models"
)

const defaultAnalysis = `{
	"sentiment": "positive",
	"topics": ["Technology", "AI"],
	"engagement_estimate": 0.75,
	"engagement_reason": "Uses trending hashtags and asks an open question",
	"risk_level": "low",
	"risk_reason": "No controversial claims"
}`

func at(day, hour int) models.Timestamp {
	return models.NewTimestamp(time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC))
}

// DefaultSuggestions returns three drafts with confidences 0.92, 0.85
// and 0.78.
func DefaultSuggestions() []models.PostSuggestion {
	return []models.PostSuggestion{
		{
			ID:         "1",
			Text:       "Just explored the latest advancements in AI language models. The potential for human-AI collaboration is more exciting than ever! #AI #MachineLearning #Tech",
			Topics:     []string{"AI", "Technology", "MachineLearning"},
			Confidence: 0.92,
			CreatedAt:  at(1, 9),
		},
		{
			ID:         "2",
			Text:       "Cryptocurrency markets showing interesting patterns today. Always fascinating to watch the interplay between technology adoption and market dynamics. #Crypto #Blockchain #Markets",
			Topics:     []string{"Crypto", "Blockchain", "Markets"},
			Confidence: 0.85,
			CreatedAt:  at(1, 10),
		},
		{
			ID:         "3",
			Text:       "Working on a new project that combines AI and social media analytics. Cannot wait to share more details soon! #Innovation #SocialMedia #DataScience",
			Topics:     []string{"Innovation", "SocialMedia", "DataScience"},
			Confidence: 0.78,
			CreatedAt:  at(1, 11),
		},
	}
}

func DefaultTrending() []models.Post {
	return []models.Post{
		{
			ID:         "t1",
			Text:       "Just announced our new AI model that can generate code 10x faster than previous versions. This is going to revolutionize software development! #AI #Coding #Tech",
			CreatedAt:  at(4, 8),
			LikeCount:  1245,
			ShareCount: 532,
			ReplyCount: 89,
			Author:     models.Author{ID: "a1", Handle: "techguru", DisplayName: "Tech Guru"},
		},
		{
			ID:         "t2",
			Text:       "The latest cryptocurrency market trends show a significant shift towards sustainable blockchain solutions. What are your thoughts on eco-friendly mining? #Crypto #Blockchain #Sustainability",
			CreatedAt:  at(4, 9),
			LikeCount:  876,
			ShareCount: 321,
			ReplyCount: 154,
			Author:     models.Author{ID: "a2", Handle: "cryptoanalyst", DisplayName: "Crypto Analyst"},
		},
		{
			ID:         "t3",
			Text:       "Our research team just published a groundbreaking paper on quantum computing applications in healthcare. This could transform how we approach disease modeling and drug discovery. #QuantumComputing #Healthcare #Science",
			CreatedAt:  at(4, 10),
			LikeCount:  2134,
			ShareCount: 987,
			ReplyCount: 203,
			Author:     models.Author{ID: "a3", Handle: "quantumlab", DisplayName: "Quantum Lab"},
		},
		{
			ID:         "t4",
			Text:       "Just released our 2025 Tech Trends Report. The convergence of AI, IoT, and edge computing is creating unprecedented opportunities for innovation. Download the full report at the link below. #TechTrends #Innovation",
			CreatedAt:  at(4, 11),
			LikeCount:  1567,
			ShareCount: 645,
			ReplyCount: 112,
			Author:     models.Author{ID: "a4", Handle: "techresearch", DisplayName: "Tech Research"},
		},
	}
}

func DefaultReplies() []models.ReplyOption {
	return []models.ReplyOption{
		{ID: "1", Text: "Interesting perspective on AI. Have you considered how this might impact privacy concerns?", Stance: models.StanceNeutral, Confidence: 0.78},
		{ID: "2", Text: "Great point about Technology! I completely agree with your perspective.", Stance: models.StanceSupportive, Confidence: 0.85},
		{ID: "3", Text: "I respectfully disagree about this. Here's why I think there's more to consider...", Stance: models.StanceAgainst, Confidence: 0.65},
	}
}

// readBody drains r.Body and puts an equivalent reader back.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, err
}
