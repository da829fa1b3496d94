package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techinsight/techinsight-be/internal/api/handlers"
	"github.com/techinsight/techinsight-be/internal/clock"
	"github.com/techinsight/techinsight-be/internal/models"
	"github.com/techinsight/techinsight-be/internal/repository/sqlite"
	"github.com/techinsight/techinsight-be/internal/services"
	"github.com/techinsight/techinsight-be/internal/websocket"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	handler http.Handler
	clock   *clock.Stub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	clk := clock.NewStub(time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC))
	router := NewRouter(Options{
		Accounts:       services.NewAccountService(store, bcrypt.MinCost, clk),
		Posts:          services.NewPostService(store, clk, hub),
		Store:          store,
		Hub:            hub,
		RequestTimeout: 5 * time.Second,
	})
	return &testServer{handler: router, clock: clk}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body handlers.ErrorResponse
	decodeBody(t, rec, &body)
	return body.Error
}

func registerBody() map[string]string {
	return map[string]string{
		"firstName": gofakeit.FirstName(),
		"lastName":  gofakeit.LastName(),
		"bio":       gofakeit.Sentence(6),
		"email":     uuid.NewString()[:8] + "@techinsight.dev",
		"password":  "correct horse battery staple",
	}
}

func (s *testServer) mustRegister(t *testing.T) models.Account {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/register", registerBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var account models.Account
	decodeBody(t, rec, &account)
	return account
}

func (s *testServer) mustCreatePost(t *testing.T, authorID, title string, tags ...string) models.Post {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/blog", map[string]interface{}{
		"title":     title,
		"content":   gofakeit.Paragraph(1, 3, 10, " "),
		"thumbnail": gofakeit.URL(),
		"author":    authorID,
		"tags":      tags,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var post models.Post
	decodeBody(t, rec, &post)
	return post
}

func TestWelcomeAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Techinsight Hub!", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthUnavailable(t *testing.T) {
	hub := websocket.NewHub()
	router := NewRouter(Options{Store: failingPinger{}, Hub: hub})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unavailable"`)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)
	body := registerBody()

	rec := s.do(t, http.MethodPost, "/register", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	var account models.Account
	decodeBody(t, rec, &account)
	assert.Equal(t, body["email"], account.Email)

	rec = s.do(t, http.MethodPost, "/register", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotEmpty(t, errorMessage(t, rec))

	post := s.mustCreatePost(t, account.ID, "My first post")

	rec = s.do(t, http.MethodPost, "/login", map[string]string{"email": body["email"], "password": body["password"]})
	require.Equal(t, http.StatusOK, rec.Code)
	var loggedIn models.Account
	decodeBody(t, rec, &loggedIn)
	assert.Equal(t, account.ID, loggedIn.ID)
	require.Len(t, loggedIn.Posts, 1)
	assert.Equal(t, post.ID, loggedIn.Posts[0].ID)

	tests := []struct {
		name string
		path string
		body interface{}
		want int
	}{
		{"register without email", "/register", map[string]string{"password": "x"}, http.StatusBadRequest},
		{"register without password", "/register", map[string]string{"email": "a@b.dev"}, http.StatusBadRequest},
		{"register with malformed body", "/register", "{", http.StatusBadRequest},
		{"register with empty body", "/register", nil, http.StatusBadRequest},
		{"login without password", "/login", map[string]string{"email": body["email"]}, http.StatusBadRequest},
		{"login with unknown email", "/login", map[string]string{"email": "ghost@techinsight.dev", "password": "x"}, http.StatusNotFound},
		{"login with wrong password", "/login", map[string]string{"email": body["email"], "password": "wrong"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, errorMessage(t, rec))
		})
	}
}

func TestAccountsEndpoints(t *testing.T) {
	s := newTestServer(t)
	alice := s.mustRegister(t)
	s.clock.Advance(time.Second)
	bob := s.mustRegister(t)
	s.mustCreatePost(t, alice.ID, "Alice writes")

	rec := s.do(t, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var accounts []models.Account
	decodeBody(t, rec, &accounts)
	require.Len(t, accounts, 2)
	assert.Equal(t, alice.ID, accounts[0].ID)
	assert.Len(t, accounts[0].Posts, 1)
	assert.Equal(t, bob.ID, accounts[1].ID)

	for _, path := range []string{"/profile/" + alice.ID, "/users/" + alice.ID} {
		rec = s.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		var got models.Account
		decodeBody(t, rec, &got)
		assert.Equal(t, alice.Email, got.Email)
		assert.Len(t, got.Posts, 1)
	}

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/profile/not-an-id", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/profile/"+uuid.NewString(), nil).Code)
}

func TestPostLifecycle(t *testing.T) {
	s := newTestServer(t)
	author := s.mustRegister(t)

	post := s.mustCreatePost(t, author.ID, "Go generics", "go", "generics")
	assert.Equal(t, author.ID, post.Author.ID)
	assert.Equal(t, author.FirstName, post.Author.FirstName)
	assert.Equal(t, []string{"go", "generics"}, post.Tags)

	s.clock.Advance(time.Minute)
	newer := s.mustCreatePost(t, author.ID, "Go iterators")

	rec := s.do(t, http.MethodGet, "/blogs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var posts []models.Post
	decodeBody(t, rec, &posts)
	require.Len(t, posts, 2)
	assert.Equal(t, newer.ID, posts[0].ID)
	assert.Equal(t, post.ID, posts[1].ID)

	rec = s.do(t, http.MethodGet, "/blogs/"+post.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched map[string]interface{}
	decodeBody(t, rec, &fetched)
	assert.Equal(t, "Go generics", fetched["title"])
	assert.Equal(t, float64(0), fetched["likeCount"])
	assert.Equal(t, []interface{}{}, fetched["comments"])

	rec = s.do(t, http.MethodPatch, "/blogs/"+post.ID, map[string]interface{}{"title": "Go generics, revisited", "isFavourite": true})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Post
	decodeBody(t, rec, &updated)
	assert.Equal(t, "Go generics, revisited", updated.Title)
	assert.Equal(t, post.Content, updated.Content)
	assert.True(t, updated.IsFavourite)

	rec = s.do(t, http.MethodDelete, "/blogs/"+post.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted handlers.MessageResponse
	decodeBody(t, rec, &deleted)
	assert.Equal(t, post.ID, deleted.ID)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/blogs/"+post.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/blogs/"+post.ID, nil).Code)
}

func TestUppercaseIDsAreEchoedCanonically(t *testing.T) {
	s := newTestServer(t)
	author := s.mustRegister(t)
	post := s.mustCreatePost(t, author.ID, "Shouting ids")
	upper := strings.ToUpper(post.ID)
	require.NotEqual(t, post.ID, upper)

	rec := s.do(t, http.MethodPost, "/blogs/"+upper+"/like", map[string]interface{}{"userId": author.ID, "like": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"postId":"`+post.ID+`","likeCount":1}`, rec.Body.String())

	rec = s.do(t, http.MethodDelete, "/blogs/"+upper, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var deleted handlers.MessageResponse
	decodeBody(t, rec, &deleted)
	assert.Equal(t, post.ID, deleted.ID)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/blogs/"+post.ID, nil).Code)
}

func TestPostErrors(t *testing.T) {
	s := newTestServer(t)
	author := s.mustRegister(t)
	post := s.mustCreatePost(t, author.ID, "target")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"create without author", http.MethodPost, "/blog", map[string]string{"title": "x"}, http.StatusBadRequest},
		{"create with malformed author", http.MethodPost, "/blog", map[string]string{"title": "x", "author": "123"}, http.StatusBadRequest},
		{"create with unknown author", http.MethodPost, "/blog", map[string]string{"title": "x", "author": uuid.NewString()}, http.StatusNotFound},
		{"get malformed id", http.MethodGet, "/blogs/123", nil, http.StatusBadRequest},
		{"get unknown id", http.MethodGet, "/blogs/" + uuid.NewString(), nil, http.StatusNotFound},
		{"patch malformed id", http.MethodPatch, "/blogs/123", map[string]string{"title": "x"}, http.StatusBadRequest},
		{"patch unknown id", http.MethodPatch, "/blogs/" + uuid.NewString(), map[string]string{"title": "x"}, http.StatusNotFound},
		{"patch with wrong type", http.MethodPatch, "/blogs/" + post.ID, map[string]interface{}{"tags": "go"}, http.StatusBadRequest},
		{"delete malformed id", http.MethodDelete, "/blogs/123", nil, http.StatusBadRequest},
		{"like with string flag", http.MethodPost, "/blogs/" + post.ID + "/like", map[string]string{"userId": author.ID, "like": "yes"}, http.StatusBadRequest},
		{"like without flag", http.MethodPost, "/blogs/" + post.ID + "/like", map[string]string{"userId": author.ID}, http.StatusBadRequest},
		{"like unknown post", http.MethodPost, "/blogs/" + uuid.NewString() + "/like", map[string]interface{}{"userId": author.ID, "like": true}, http.StatusNotFound},
		{"like unknown account", http.MethodPost, "/blogs/" + post.ID + "/like", map[string]interface{}{"userId": uuid.NewString(), "like": true}, http.StatusNotFound},
		{"comment without text", http.MethodPost, "/blogs/" + post.ID + "/comment", map[string]string{"userId": author.ID}, http.StatusBadRequest},
		{"comment on unknown post", http.MethodPost, "/blogs/" + uuid.NewString() + "/comment", map[string]string{"userId": author.ID, "comment": "hi"}, http.StatusNotFound},
		{"favourite without flag", http.MethodPatch, "/blogs/" + post.ID + "/favourite", map[string]string{"userId": author.ID}, http.StatusBadRequest},
		{"favourite with malformed account", http.MethodPatch, "/blogs/" + post.ID + "/favourite", map[string]interface{}{"userId": "me", "isFavourite": true}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, errorMessage(t, rec))
		})
	}
}

func TestEngagement(t *testing.T) {
	s := newTestServer(t)
	author := s.mustRegister(t)
	reader := s.mustRegister(t)
	post := s.mustCreatePost(t, author.ID, "engaging")
	likePath := "/blogs/" + post.ID + "/like"

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, likePath, map[string]interface{}{"userId": reader.ID, "like": true})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"postId":"`+post.ID+`","likeCount":1}`, rec.Body.String())
	}
	rec := s.do(t, http.MethodPost, likePath, map[string]interface{}{"userId": reader.ID, "like": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"postId":"`+post.ID+`","likeCount":0}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/blogs/"+post.ID+"/comment", map[string]string{"userId": reader.ID, "comment": "Insightful"})
	require.Equal(t, http.StatusOK, rec.Code)
	var commented models.Post
	decodeBody(t, rec, &commented)
	require.Len(t, commented.Comments, 1)
	assert.Equal(t, "Insightful", commented.Comments[0].Text)
	assert.Equal(t, reader.ID, commented.Comments[0].Author.ID)

	rec = s.do(t, http.MethodPatch, "/blogs/"+post.ID+"/favourite", map[string]interface{}{"userId": reader.ID, "isFavourite": true})
	require.Equal(t, http.StatusOK, rec.Code)
	var favourited models.Post
	decodeBody(t, rec, &favourited)
	assert.True(t, favourited.IsFavourite)
	assert.Equal(t, models.IDSet{reader.ID}, favourited.FavouritedBy)
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)
	author := s.mustRegister(t)
	a := s.mustCreatePost(t, author.ID, "Tech radar")
	s.clock.Advance(time.Second)
	b := s.mustCreatePost(t, author.ID, "Inside BIG TECH")
	s.clock.Advance(time.Second)
	c := s.mustCreatePost(t, author.ID, "Weekend hike", "edtech")
	s.clock.Advance(time.Second)
	s.mustCreatePost(t, author.ID, "Sourdough", "baking")

	rec := s.do(t, http.MethodGet, "/search?query=tech", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var posts []models.Post
	decodeBody(t, rec, &posts)
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids)

	rec = s.do(t, http.MethodGet, "/search", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &posts)
	assert.Len(t, posts, 4)
}

func TestActivityStream(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.handler)
	t.Cleanup(srv.Close)

	author := s.mustRegister(t)
	post := s.mustCreatePost(t, author.ID, "live")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/blogs/" + post.ID
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	// A pong proves the client is registered with the hub.
	require.NoError(t, conn.WriteJSON(websocket.Message{Action: websocket.ActionPing}))
	var msg websocket.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, websocket.ActionPong, msg.Action)

	require.NoError(t, conn.WriteJSON(websocket.Message{Action: "dance"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, websocket.ActionError, msg.Action)

	body, err := json.Marshal(map[string]interface{}{"userId": author.ID, "like": true})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/blogs/"+post.ID+"/like", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, services.ActionPostLiked, msg.Action)
	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, post.ID, payload["postId"])
	assert.Equal(t, float64(1), payload["likeCount"])
}
