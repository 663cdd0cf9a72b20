package store

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dyike/xagent/internal/api"
	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeUsers struct {
	user  models.User
	err   error
	calls int
	block chan struct{}
	mu    sync.Mutex
}

func (f *fakeUsers) GetCurrentUser(ctx context.Context) (models.User, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return models.User{}, &api.Error{Kind: api.KindRequestFailed, Op: "get current user", Message: ctx.Err().Error()}
		}
	}
	return f.user, f.err
}

func suggestion(id string, confidence float64, topics ...string) models.PostSuggestion {
	return models.PostSuggestion{ID: id, Text: "draft " + id, Topics: topics, Confidence: confidence}
}

func ids(s Snapshot) []string {
	out := make([]string, 0, len(s.Suggestions))
	for _, sg := range s.Suggestions {
		out = append(out, sg.ID)
	}
	return out
}

func randomTransition(r *rand.Rand) Transition {
	switch r.Intn(8) {
	case 0:
		if r.Intn(2) == 0 {
			return SetUser{}
		}
		return SetUser{User: &models.User{ID: fmt.Sprintf("u%d", r.Intn(5))}}
	case 1:
		return SetSuggestions{Suggestions: []models.PostSuggestion{suggestion("1", 0.9), suggestion("2", 0.5)}}
	case 2:
		return AddSuggestion{Suggestion: suggestion(fmt.Sprint(r.Intn(10)), r.Float64())}
	case 3:
		return RemoveSuggestion{ID: fmt.Sprint(r.Intn(10))}
	case 4:
		return SetUserPosts{Posts: []models.Post{{ID: "p"}}}
	case 5:
		return SetLoading{Loading: r.Intn(2) == 0}
	case 6:
		if r.Intn(2) == 0 {
			return SetError{}
		}
		return ErrorText("boom")
	default:
		return Reset{}
	}
}

func TestAuthenticatedTracksUser(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	s := Initial()
	for i := 0; i < 2000; i++ {
		tr := randomTransition(r)
		s = Reduce(s, tr)
		require.Equalf(t, s.User != nil, s.IsAuthenticated, "after %v (step %d)", tr, i)
	}
}

func TestResetYieldsInitial(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		s := Initial()
		for j := 0; j < r.Intn(20); j++ {
			s = Reduce(s, randomTransition(r))
		}
		if diff := cmp.Diff(Initial(), Reduce(s, Reset{})); diff != "" {
			t.Fatalf("reset mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestRemoveSuggestion(t *testing.T) {
	s := Reduce(Initial(), SetSuggestions{Suggestions: []models.PostSuggestion{
		suggestion("1", 0.92), suggestion("2", 0.85), suggestion("3", 0.78),
	}})

	once := Reduce(s, RemoveSuggestion{ID: "2"})
	assert.Equal(t, []string{"1", "3"}, ids(once))

	twice := Reduce(once, RemoveSuggestion{ID: "2"})
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second removal changed state:\n%s", diff)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids(s), "input snapshot untouched")
}

func TestAddSuggestionPrepends(t *testing.T) {
	s := Reduce(Initial(), SetSuggestions{Suggestions: []models.PostSuggestion{suggestion("1", 0.9)}})
	s = Reduce(s, AddSuggestion{Suggestion: suggestion("new", 0.88)})
	assert.Equal(t, []string{"new", "1"}, ids(s))
}

func TestReduceDoesNotAlias(t *testing.T) {
	in := []models.PostSuggestion{suggestion("1", 0.9, "AI")}
	s := Reduce(Initial(), SetSuggestions{Suggestions: in})
	in[0].Topics[0] = "mutated"
	assert.Equal(t, "AI", s.Suggestions[0].Topics[0])

	name := "ada"
	u := &models.User{ID: "u1", Username: name}
	s = Reduce(s, SetUser{User: u})
	u.Username = "changed"
	assert.Equal(t, "ada", s.User.Username)
}

func TestDispatchNotifiesInOrder(t *testing.T) {
	st := New(nil, nil)
	defer st.Close()

	var got []string
	st.Subscribe(func(s Snapshot) { got = append(got, fmt.Sprintf("a:%t", s.IsLoading)) })
	unsub := st.Subscribe(func(s Snapshot) { got = append(got, fmt.Sprintf("b:%t", s.IsLoading)) })

	st.Dispatch(SetLoading{Loading: true})
	unsub()
	unsub()
	st.Dispatch(SetLoading{Loading: false})

	assert.Equal(t, []string{"a:true", "b:true", "a:false"}, got)
}

func TestDispatchFromListenerIsQueued(t *testing.T) {
	st := New(nil, nil)
	defer st.Close()

	var seen [][]string
	st.Subscribe(func(s Snapshot) {
		seen = append(seen, ids(s))
		if len(s.Suggestions) == 1 && s.Suggestions[0].ID == "1" {
			st.Dispatch(AddSuggestion{Suggestion: suggestion("2", 0.5)})
		}
	})
	st.Subscribe(func(s Snapshot) {
		seen = append(seen, ids(s))
	})

	st.Dispatch(AddSuggestion{Suggestion: suggestion("1", 0.5)})

	// Both listeners finish the first round before anyone sees the second.
	assert.Equal(t, [][]string{{"1"}, {"1"}, {"2", "1"}, {"2", "1"}}, seen)
	assert.Equal(t, []string{"2", "1"}, ids(st.Snapshot()))
}

func TestConcurrentDispatch(t *testing.T) {
	st := New(nil, nil)
	defer st.Close()

	var mu sync.Mutex
	var notified int
	st.Subscribe(func(Snapshot) {
		mu.Lock()
		notified++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st.Dispatch(AddSuggestion{Suggestion: suggestion(fmt.Sprint(i), 0.5)})
		}(i)
	}
	wg.Wait()

	assert.Len(t, st.Snapshot().Suggestions, 50)
	mu.Lock()
	assert.Equal(t, 50, notified)
	mu.Unlock()
}

func TestSnapshotIsACopy(t *testing.T) {
	st := New(nil, nil)
	defer st.Close()
	st.Dispatch(SetSuggestions{Suggestions: []models.PostSuggestion{suggestion("1", 0.9, "AI")}})

	snap := st.Snapshot()
	snap.Suggestions[0].Topics[0] = "mutated"
	snap.Suggestions = nil
	assert.Equal(t, "AI", st.Snapshot().Suggestions[0].Topics[0])
}

func waitReady(t *testing.T, st *Store) {
	t.Helper()
	select {
	case <-st.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("restoration did not finish")
	}
}

func TestNoRestorationWithoutCredential(t *testing.T) {
	users := &fakeUsers{}
	st := New(session.NewMemoryStore(), users)
	defer st.Close()

	waitReady(t, st)
	assert.Zero(t, users.calls)
	if diff := cmp.Diff(Initial(), st.Snapshot()); diff != "" {
		t.Fatalf("unexpected state:\n%s", diff)
	}
}

func TestRestorationSignsIn(t *testing.T) {
	creds := session.NewMemoryStore()
	require.NoError(t, creds.Save("tok"))
	users := &fakeUsers{user: models.User{ID: "user_1", Username: "ada"}, block: make(chan struct{})}

	st := New(creds, users)
	defer st.Close()

	var loading []bool
	var mu sync.Mutex
	st.Subscribe(func(s Snapshot) {
		mu.Lock()
		loading = append(loading, s.IsLoading)
		mu.Unlock()
	})
	close(users.block)

	waitReady(t, st)
	snap := st.Snapshot()
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, "ada", snap.User.Username)
	assert.False(t, snap.IsLoading)
	assert.Equal(t, 1, users.calls)
	assert.True(t, creds.IsPresent())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, loading)
	assert.False(t, loading[len(loading)-1])
}

func TestRestorationFailureClearsCredential(t *testing.T) {
	creds := session.NewMemoryStore()
	require.NoError(t, creds.Save("stale"))
	users := &fakeUsers{err: &api.Error{Kind: api.KindSessionExpired, Status: 401, Message: api.SessionExpiredMessage}}

	st := New(creds, users)
	defer st.Close()
	waitReady(t, st)

	snap := st.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.Nil(t, snap.Error, "an answer from the server is not a startup error")
	assert.False(t, creds.IsPresent())
}

func TestRestorationUnreachableSetsError(t *testing.T) {
	creds := session.NewMemoryStore()
	require.NoError(t, creds.Save("tok"))
	users := &fakeUsers{err: &api.Error{Kind: api.KindRequestFailed, Message: "connection refused"}}

	st := New(creds, users)
	defer st.Close()
	waitReady(t, st)

	snap := st.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.Equal(t, "connection refused", snap.ErrorMessage())
	assert.False(t, creds.IsPresent())
}

func TestCloseCancelsRestoration(t *testing.T) {
	creds := session.NewMemoryStore()
	require.NoError(t, creds.Save("tok"))
	users := &fakeUsers{block: make(chan struct{})}

	st := New(creds, users)
	st.Close()

	select {
	case <-st.Ready():
	default:
		t.Fatal("ready not closed after Close")
	}
	snap := st.Snapshot()
	assert.False(t, snap.IsLoading)
	assert.Nil(t, snap.Error)
	assert.False(t, snap.IsAuthenticated)
	assert.True(t, creds.IsPresent(), "cancelled restoration must keep the credential")
}

func TestCloseDuringSlowRestorationKeepsCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	creds := session.NewMemoryStore()
	require.NoError(t, creds.Save("good-token"))
	client := api.New(srv.URL, creds, api.WithHTTPClient(srv.Client()))

	st := New(creds, client.Auth())
	time.Sleep(50 * time.Millisecond)
	st.Close()

	assert.True(t, creds.IsPresent())
	assert.Nil(t, st.Snapshot().Error)
}
