package store

import (
	"fmt"

	"github.com/dyike/xagent/internal/models"
)

// Transition is one of the closed set of state changes below.
type Transition interface {
	fmt.Stringer
	transition()
}

// SetUser replaces the signed-in user. A nil User signs out.
type SetUser struct{ User *models.User }

type SetSuggestions struct{ Suggestions []models.PostSuggestion }

// AddSuggestion prepends one suggestion.
type AddSuggestion struct{ Suggestion models.PostSuggestion }

// RemoveSuggestion drops the suggestion with ID; absent ids are a no-op.
type RemoveSuggestion struct{ ID string }

type SetUserPosts struct{ Posts []models.Post }

type SetLoading struct{ Loading bool }

// SetError sets the error scalar; nil clears it.
type SetError struct{ Message *string }

// Reset returns to the initial snapshot.
type Reset struct{}

func (SetUser) transition()          {}
func (SetSuggestions) transition()   {}
func (AddSuggestion) transition()    {}
func (RemoveSuggestion) transition() {}
func (SetUserPosts) transition()     {}
func (SetLoading) transition()       {}
func (SetError) transition()         {}
func (Reset) transition()            {}

func (t SetUser) String() string {
	if t.User == nil {
		return "SetUser(nil)"
	}
	return fmt.Sprintf("SetUser(%s)", t.User.ID)
}
func (t SetSuggestions) String() string { return fmt.Sprintf("SetSuggestions(%d)", len(t.Suggestions)) }
func (t AddSuggestion) String() string  { return fmt.Sprintf("AddSuggestion(%s)", t.Suggestion.ID) }
func (t RemoveSuggestion) String() string {
	return fmt.Sprintf("RemoveSuggestion(%s)", t.ID)
}
func (t SetUserPosts) String() string { return fmt.Sprintf("SetUserPosts(%d)", len(t.Posts)) }
func (t SetLoading) String() string   { return fmt.Sprintf("SetLoading(%t)", t.Loading) }
func (t SetError) String() string {
	if t.Message == nil {
		return "SetError(nil)"
	}
	return fmt.Sprintf("SetError(%q)", *t.Message)
}
func (Reset) String() string { return "Reset" }

// ErrorText is a convenience for SetError with a message.
func ErrorText(msg string) SetError {
	return SetError{Message: &msg}
}

// Reduce computes the snapshot that follows s under t. It does not mutate s
// and the result shares no memory with t.
func Reduce(s Snapshot, t Transition) Snapshot {
	next := s.Clone()
	switch t := t.(type) {
	case SetUser:
		if t.User == nil {
			next.User = nil
		} else {
			u := t.User.Clone()
			next.User = &u
		}
		next.IsAuthenticated = next.User != nil
	case SetSuggestions:
		next.Suggestions = cloneSuggestions(t.Suggestions)
	case AddSuggestion:
		next.Suggestions = append([]models.PostSuggestion{t.Suggestion.Clone()}, next.Suggestions...)
	case RemoveSuggestion:
		kept := next.Suggestions[:0]
		for _, sg := range next.Suggestions {
			if sg.ID != t.ID {
				kept = append(kept, sg)
			}
		}
		next.Suggestions = kept
	case SetUserPosts:
		next.UserPosts = make([]models.Post, len(t.Posts))
		for i, p := range t.Posts {
			next.UserPosts[i] = p.Clone()
		}
	case SetLoading:
		next.IsLoading = t.Loading
	case SetError:
		if t.Message == nil {
			next.Error = nil
		} else {
			m := *t.Message
			next.Error = &m
		}
	case Reset:
		return Initial()
	}
	return next
}

func cloneSuggestions(in []models.PostSuggestion) []models.PostSuggestion {
	out := make([]models.PostSuggestion, len(in))
	for i, sg := range in {
		out[i] = sg.Clone()
	}
	return out
}
