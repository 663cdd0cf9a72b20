// Package router decides which page is shown.
package router

import "strings"

type Page string

const (
	Auth        Page = "auth"
	Dashboard   Page = "dashboard"
	Suggestions Page = "suggestions"
	Analysis    Page = "analysis"
	Trending    Page = "trending"
	Account     Page = "account"
	Settings    Page = "settings"
)

// Pages is the navigation order.
var Pages = []Page{Dashboard, Suggestions, Analysis, Trending, Account, Settings}

var titles = map[Page]string{
	Auth:        "Sign in",
	Dashboard:   "Dashboard",
	Suggestions: "Suggestions",
	Analysis:    "Analysis",
	Trending:    "Trending",
	Account:     "Account",
	Settings:    "Settings",
}

func (p Page) Title() string {
	if t, ok := titles[p]; ok {
		return t
	}
	return string(p)
}

// Valid reports whether p is a navigable page. Auth is not.
func (p Page) Valid() bool {
	for _, q := range Pages {
		if p == q {
			return true
		}
	}
	return false
}

// Parse maps a user-supplied name onto a page, falling back to Dashboard.
func Parse(name string) Page {
	p := Page(strings.ToLower(strings.TrimSpace(name)))
	if p.Valid() {
		return p
	}
	return Dashboard
}

// Resolve returns the page to render: Auth for anonymous users, otherwise
// the selection, with unknown selections landing on Dashboard.
func Resolve(selected Page, authenticated bool) Page {
	if !authenticated {
		return Auth
	}
	if !selected.Valid() {
		return Dashboard
	}
	return selected
}

func index(p Page) int {
	for i, q := range Pages {
		if p == q {
			return i
		}
	}
	return -1
}

// Next returns the page after p, wrapping around.
func Next(p Page) Page {
	i := index(p)
	if i < 0 {
		return Pages[0]
	}
	return Pages[(i+1)%len(Pages)]
}

// Prev returns the page before p, wrapping around.
func Prev(p Page) Page {
	i := index(p)
	if i < 0 {
		return Pages[len(Pages)-1]
	}
	return Pages[(i-1+len(Pages))%len(Pages)]
}
