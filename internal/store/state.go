// Package store holds the application state: the signed-in user, the
// suggestion list, the user's posts and the loading/error flags.
package store

import "github.com/dyike/xagent/internal/models"

// Snapshot is one immutable view of the application state. Snapshots handed
// out by the Store never share slices or pointers with the live state.
type Snapshot struct {
	User            *models.User
	IsAuthenticated bool
	Suggestions     []models.PostSuggestion
	UserPosts       []models.Post
	IsLoading       bool
	Error           *string
}

// Initial is the state of a fresh container and the result of Reset.
func Initial() Snapshot {
	return Snapshot{
		Suggestions: []models.PostSuggestion{},
		UserPosts:   []models.Post{},
	}
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.User != nil {
		u := s.User.Clone()
		out.User = &u
	}
	if s.Error != nil {
		e := *s.Error
		out.Error = &e
	}
	out.Suggestions = make([]models.PostSuggestion, len(s.Suggestions))
	for i, sg := range s.Suggestions {
		out.Suggestions[i] = sg.Clone()
	}
	out.UserPosts = make([]models.Post, len(s.UserPosts))
	for i, p := range s.UserPosts {
		out.UserPosts[i] = p.Clone()
	}
	return out
}

// ErrorMessage returns the error scalar, empty when unset.
func (s Snapshot) ErrorMessage() string {
	if s.Error == nil {
		return ""
	}
	return *s.Error
}
