package tui

import (
	"github.com/dyike/xagent/config"
	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/panels"
)

type (
	// snapshotMsg tells the model the store published a new snapshot.
	snapshotMsg struct{}
	// readyMsg arrives once session restoration has finished.
	readyMsg      struct{}
	configMsg     struct{ change config.Change }
	authDoneMsg   struct{ res panels.AuthResult }
	postsMsg      struct{ res panels.PostsResult }
	trendingMsg   struct{ res panels.TrendingResult }
	analysisMsg   struct{ res panels.AnalysisResult }
	loadedMsg     struct{ res panels.SuggestionsResult }
	generatedMsg  struct{ res panels.SuggestionsResult }
	approvedMsg   struct{ res panels.ApproveResult }
	publishedMsg  struct {
		action string
		post   models.Post
		err    error
	}
	// accountMsg reports a finished account or payment operation.
	accountMsg struct {
		notice string
		err    error
	}
	settingsMsg struct{ err error }
)
