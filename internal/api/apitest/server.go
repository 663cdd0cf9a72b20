// Package apitest runs an in-process fake of the posting backend for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dyike/xagent/internal/models"
)

// Routes, usable with Calls, Fail and Header.
const (
	RouteLogin          = "POST /api/auth/token"
	RouteRegister       = "POST /api/auth/register"
	RouteMe             = "GET /api/auth/me"
	RouteConnectX       = "POST /api/auth/connect-x"
	RouteSubscription   = "POST /api/auth/subscription"
	RouteTrending       = "GET /api/twitter/trending"
	RouteAnalyze        = "POST /api/twitter/analyze"
	RouteReplyOptions   = "POST /api/twitter/reply-options"
	RouteSuggestions    = "GET /api/twitter/suggestions"
	RouteUserPosts      = "GET /api/twitter/user-tweets"
	RoutePublish        = "POST /api/twitter/tweet"
	RouteReply          = "POST /api/twitter/reply"
	RouteRepost         = "POST /api/twitter/retweet"
	RoutePaymentRequest = "POST /api/payment/request"
	RoutePaymentVerify  = "POST /api/payment/verify"
	RoutePaymentStatus  = "GET /api/payment/status/{id}"
	RoutePaymentHistory = "GET /api/payment/history"
)

// Seeded account.
const (
	DemoEmail    = "a@b.com"
	DemoPassword = "pw"
	DemoUsername = "ada"
)

type account struct {
	user     models.User
	password string
}

type failure struct {
	status      int
	contentType string
	body        string
}

type payment struct {
	req      models.PaymentRequest
	email    string
	quantity int
}

// Server is a fake backend. All fixture accessors are safe for concurrent
// use with in-flight requests.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	accounts    map[string]*account
	tokens      map[string]string
	suggestions []models.PostSuggestion
	trending    []models.Post
	userPosts   []models.Post
	analysis    string
	replies     []models.ReplyOption
	payments    []*payment
	published   []string
	failures    map[string]failure
	calls       map[string]int
	headers     map[string]http.Header
	bodies      map[string][]byte
	seq         int
}

// New starts a server seeded with the demo account and default fixtures.
// It is closed when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		accounts:    map[string]*account{},
		tokens:      map[string]string{},
		suggestions: DefaultSuggestions(),
		trending:    DefaultTrending(),
		analysis:    defaultAnalysis,
		replies:     DefaultReplies(),
		failures:    map[string]failure{},
		calls:       map[string]int{},
		headers:     map[string]http.Header{},
		bodies:      map[string][]byte{},
	}
	s.AddUser(models.User{ID: "user_1", Username: DemoUsername, Email: DemoEmail}, DemoPassword)

	mux := http.NewServeMux()
	s.route(mux, RouteLogin, false, s.handleLogin)
	s.route(mux, RouteRegister, false, s.handleRegister)
	s.route(mux, RouteMe, true, s.handleMe)
	s.route(mux, RouteConnectX, true, s.handleConnectX)
	s.route(mux, RouteSubscription, true, s.handleSubscription)
	s.route(mux, RouteTrending, true, s.handleTrending)
	s.route(mux, RouteAnalyze, true, s.handleAnalyze)
	s.route(mux, RouteReplyOptions, true, s.handleReplyOptions)
	s.route(mux, RouteSuggestions, true, s.handleSuggestions)
	s.route(mux, RouteUserPosts, true, s.handleUserPosts)
	s.route(mux, RoutePublish, true, s.handlePublish)
	s.route(mux, RouteReply, true, s.handlePublish)
	s.route(mux, RouteRepost, true, s.handlePublish)
	s.route(mux, RoutePaymentRequest, true, s.handlePaymentRequest)
	s.route(mux, RoutePaymentVerify, true, s.handlePaymentVerify)
	s.route(mux, RoutePaymentStatus, true, s.handlePaymentStatus)
	s.route(mux, RoutePaymentHistory, true, s.handlePaymentHistory)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

type handler func(w http.ResponseWriter, r *http.Request, email string)

func (s *Server) route(mux *http.ServeMux, pattern string, auth bool, h handler) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		body, _ := readBody(r)

		s.mu.Lock()
		s.calls[pattern]++
		s.headers[pattern] = r.Header.Clone()
		s.bodies[pattern] = body
		f, failing := s.failures[pattern]
		s.mu.Unlock()

		if failing {
			w.Header().Set("Content-Type", f.contentType)
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}

		var email string
		if auth {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			s.mu.Lock()
			e, ok := s.tokens[token]
			s.mu.Unlock()
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
				return
			}
			email = e
		}
		h(w, r, email)
	})
}

// AddUser registers an account directly.
func (s *Server) AddUser(user models.User, password string) {
	if user.SubscriptionTier == "" {
		user.SubscriptionTier = models.TierFree
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = models.NewTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		user.UpdatedAt = user.CreatedAt
	}
	s.mu.Lock()
	s.accounts[user.Email] = &account{user: user, password: password}
	s.mu.Unlock()
}

// IssueToken returns a valid credential for email without a login call.
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(email)
}

func (s *Server) issueLocked(email string) string {
	s.seq++
	token := fmt.Sprintf("tok-%d", s.seq)
	s.tokens[token] = email
	return token
}

// Expire revokes every issued credential.
func (s *Server) Expire() {
	s.mu.Lock()
	s.tokens = map[string]string{}
	s.mu.Unlock()
}

// Fail makes every request to route answer with status and a JSON body
// {"detail": detail}. An empty detail sends an empty body.
func (s *Server) Fail(route string, status int, detail string) {
	body := ""
	if detail != "" {
		b, _ := json.Marshal(map[string]string{"detail": detail})
		body = string(b)
	}
	s.FailRaw(route, status, "application/json", body)
}

// FailRaw makes every request to route answer with the given response.
func (s *Server) FailRaw(route string, status int, contentType, body string) {
	s.mu.Lock()
	s.failures[route] = failure{status: status, contentType: contentType, body: body}
	s.mu.Unlock()
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	s.failures = map[string]failure{}
	s.mu.Unlock()
}

// Calls counts requests that reached route, failed ones included.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// TotalCalls counts every request the server received.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// Header returns a header of the last request to route.
func (s *Server) Header(route, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[route].Get(name)
}

// Body returns the raw body of the last request to route.
func (s *Server) Body(route string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.bodies[route]...)
}

// Published lists texts sent through the publish, reply and repost routes.
func (s *Server) Published() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.published...)
}

func (s *Server) User(email string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[email]
	if !ok {
		return models.User{}, false
	}
	return a.user.Clone(), true
}

func (s *Server) SetSuggestions(v []models.PostSuggestion) {
	s.mu.Lock()
	s.suggestions = v
	s.mu.Unlock()
}

func (s *Server) SetTrending(v []models.Post) {
	s.mu.Lock()
	s.trending = v
	s.mu.Unlock()
}

func (s *Server) SetUserPosts(v []models.Post) {
	s.mu.Lock()
	s.userPosts = v
	s.mu.Unlock()
}

func (s *Server) SetReplies(v []models.ReplyOption) {
	s.mu.Lock()
	s.replies = v
	s.mu.Unlock()
}

// SetAnalysis replaces the raw JSON returned by the analysis route.
func (s *Server) SetAnalysis(raw string) {
	s.mu.Lock()
	s.analysis = raw
	s.mu.Unlock()
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, _ string) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Malformed form"})
		return
	}
	email, password := r.PostForm.Get("username"), r.PostForm.Get("password")

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[email]
	if !ok || a.password != password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
		return
	}
	writeJSON(w, http.StatusOK, models.AuthToken{AccessToken: s.issueLocked(email), TokenType: "bearer"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request, _ string) {
	var reg models.Registration
	if !decode(w, r, &reg) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[reg.Email]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Email already registered"})
		return
	}
	now := models.NewTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	user := models.User{
		ID:                   fmt.Sprintf("user_%d", len(s.accounts)+1),
		Username:             reg.Username,
		Email:                reg.Email,
		SubscriptionTier:     models.TierFree,
		SuggestionsRemaining: 3,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	s.accounts[reg.Email] = &account{user: user, password: reg.Password}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, email string) {
	user, ok := s.User(email)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleConnectX(w http.ResponseWriter, r *http.Request, email string) {
	var acct models.PlatformAccount
	if !decode(w, r, &acct) {
		return
	}
	s.mu.Lock()
	a := s.accounts[email]
	handle := acct.Handle
	a.user.X = &handle
	user := a.user.Clone()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleSubscription(w http.ResponseWriter, r *http.Request, email string) {
	var body struct {
		Tier models.SubscriptionTier `json:"tier"`
	}
	if !decode(w, r, &body) {
		return
	}
	if !body.Tier.Valid() {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body", "tier"}, "msg": "Input should be 'free' or 'pro'"}},
		})
		return
	}
	s.mu.Lock()
	a := s.accounts[email]
	a.user.SubscriptionTier = body.Tier
	user := a.user.Clone()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request, _ string) {
	s.mu.Lock()
	posts := firstN(s.trending, queryInt(r, "count", len(s.trending)))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request, _ string) {
	var body struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	raw := s.analysis
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(raw))
}

func (s *Server) handleReplyOptions(w http.ResponseWriter, r *http.Request, _ string) {
	var body struct {
		Text  string `json:"text"`
		Count int    `json:"count"`
	}
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	options := firstN(s.replies, body.Count)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, options)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request, _ string) {
	count := queryInt(r, "count", 3)
	topics := r.URL.Query()["topics"]

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(topics) == 0 {
		writeJSON(w, http.StatusOK, firstN(s.suggestions, count))
		return
	}
	out := make([]models.PostSuggestion, 0, count)
	for i := 0; i < count; i++ {
		s.seq++
		out = append(out, models.PostSuggestion{
			ID:         fmt.Sprintf("gen-%d", s.seq),
			Text:       "Fresh thoughts on " + strings.Join(topics, " and ") + ". #" + strings.Join(topics, " #"),
			Topics:     append([]string(nil), topics...),
			Confidence: 0.88,
			CreatedAt:  models.NewTimestamp(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUserPosts(w http.ResponseWriter, r *http.Request, _ string) {
	s.mu.Lock()
	posts := firstN(s.userPosts, queryInt(r, "count", 10))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request, email string) {
	var body struct {
		TweetID string `json:"tweet_id"`
		Text    string `json:"text"`
	}
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	s.seq++
	s.published = append(s.published, body.Text)
	author := s.accounts[email].user
	post := models.Post{
		ID:        fmt.Sprintf("post-%d", s.seq),
		Text:      body.Text,
		CreatedAt: models.NewTimestamp(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)),
		Author:    models.Author{ID: author.ID, Handle: author.Username, DisplayName: author.Username},
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handlePaymentRequest(w http.ResponseWriter, r *http.Request, email string) {
	var body struct {
		ItemType string `json:"item_type"`
		Quantity int    `json:"quantity"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.ItemType != models.ItemSuggestion {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Invalid item type"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	p := &payment{
		email:    email,
		quantity: body.Quantity,
		req: models.PaymentRequest{
			ID:             fmt.Sprintf("tx_%d", s.seq),
			UserID:         s.accounts[email].user.ID,
			Amount:         decimal.RequireFromString("0.015").Mul(decimal.NewFromInt(int64(body.Quantity))),
			ItemType:       body.ItemType,
			Status:         models.PaymentPending,
			CreatedAt:      models.NewTimestamp(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)),
			PaymentAddress: "0x0000000000000000000000000000000000000bnb",
		},
	}
	s.payments = append(s.payments, p)
	writeJSON(w, http.StatusOK, p.req)
}

func (s *Server) handlePaymentVerify(w http.ResponseWriter, r *http.Request, email string) {
	var body struct {
		TxID   string `json:"tx_id"`
		TxHash string `json:"tx_hash"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findLocked(email, body.TxID)
	if p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Payment request not found"})
		return
	}
	if !strings.HasPrefix(body.TxHash, "0x") {
		p.req.Status = models.PaymentFailed
		writeJSON(w, http.StatusOK, models.PaymentVerification{Status: models.PaymentFailed, Message: "Transaction verification failed"})
		return
	}
	if p.req.Status != models.PaymentCompleted {
		p.req.Status = models.PaymentCompleted
		s.accounts[email].user.SuggestionsRemaining += p.quantity
	}
	writeJSON(w, http.StatusOK, models.PaymentVerification{Status: models.PaymentCompleted, TxID: body.TxID, TxHash: body.TxHash})
}

func (s *Server) handlePaymentStatus(w http.ResponseWriter, r *http.Request, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findLocked(email, r.PathValue("id"))
	if p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Payment request not found"})
		return
	}
	writeJSON(w, http.StatusOK, p.req)
}

func (s *Server) handlePaymentHistory(w http.ResponseWriter, _ *http.Request, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.PaymentRequest{}
	for _, p := range s.payments {
		if p.email == email {
			out = append(out, p.req)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) findLocked(email, id string) *payment {
	for _, p := range s.payments {
		if p.email == email && p.req.ID == id {
			return p
		}
	}
	return nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := readBody(r)
	if err == nil {
		err = json.Unmarshal(body, v)
	}
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "Malformed request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil {
		return v
	}
	return def
}

func firstN[T any](items []T, n int) []T {
	if n < 0 || n > len(items) {
		n = len(items)
	}
	return append([]T{}, items[:n]...)
}
