package panels

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dyike/xagent/internal/api"
	"github.com/dyike/xagent/internal/api/apitest"
	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/session"
	"github.com/dyike/xagent/internal/store"
)

type harness struct {
	srv    *apitest.Server
	client *api.Client
	creds  *session.MemoryStore
	st     *store.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := apitest.New(t)
	creds := session.NewMemoryStore()
	st := store.New(nil, nil)
	t.Cleanup(st.Close)
	return &harness{srv: srv, client: api.New(srv.URL, creds), creds: creds, st: st}
}

// signedIn stores a valid credential and puts the demo user in the store.
func signedIn(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	require.NoError(t, h.creds.Save(h.srv.IssueToken(apitest.DemoEmail)))
	user, ok := h.srv.User(apitest.DemoEmail)
	require.True(t, ok)
	h.st.Dispatch(store.SetUser{User: &user})
	return h
}

func suggestionIDs(in []models.PostSuggestion) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, s.ID)
	}
	return out
}

func postIDs(in []models.Post) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		out = append(out, p.ID)
	}
	return out
}
