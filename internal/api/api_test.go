package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"soumiSpace/internal/auth"
	"soumiSpace/internal/content"
	"soumiSpace/internal/database"
	"soumiSpace/internal/editor"
	"soumiSpace/internal/preview"
	"soumiSpace/internal/render"
	"soumiSpace/internal/upload"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type fakeRedis struct {
	mu sync.Mutex
	kv map[string]string
}

func newFakeRedis() *fakeRedis { return &fakeRedis{kv: map[string]string{}} }

func (r *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, _ := strconv.ParseInt(r.kv[key], 10, 64)
	n++
	r.kv[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func (r *fakeRedis) Expire(context.Context, string, time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

func (r *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.kv[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (r *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kv[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (r *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.kv, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (r *fakeRedis) TTL(context.Context, string) *redis.DurationCmd {
	return redis.NewDurationResult(0, nil)
}

type memoryStore struct {
	mu   sync.Mutex
	rows map[string]json.RawMessage
}

func (m *memoryStore) FetchAll(context.Context) (map[string]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]json.RawMessage, len(m.rows))
	for k, v := range m.rows {
		out[k] = v
	}
	return out, nil
}

func (m *memoryStore) UpsertSection(_ context.Context, name string, raw json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[name] = raw
	return nil
}

type fakeSnapshots struct {
	exists map[string]bool
}

func (f fakeSnapshots) Exists(_ context.Context, key string) (bool, error) { return f.exists[key], nil }

func (f fakeSnapshots) GeneratePresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://example.invalid/" + key, nil
}

type testEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	auth     *auth.AuthService
	store    *memoryStore
	sync     *editor.Synchronizer
	notices  *editor.NoticeBoard
	hub      *preview.Hub
	surface  *preview.Surface
	snapshot fakeSnapshots
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&database.User{}))

	authService, err := auth.NewTestService(time.Minute, time.Hour)
	require.NoError(t, err)

	st := &memoryStore{rows: map[string]json.RawMessage{}}
	notices := editor.NewNoticeBoard(16, time.Minute)
	hub := preview.NewHub(nil)
	surface := preview.NewSurface(render.New(nil), preview.LoaderFunc(func(ctx context.Context) *content.Site {
		return content.Load(ctx, st, nil)
	}), nil)
	hub.AttachSurface(surface)

	synchronizer := editor.New(editor.Options{Store: st, Fetcher: st, Notifier: notices, Broadcaster: hub})
	hub.SetSource(synchronizer)

	env := &testEnv{
		db:       db,
		auth:     authService,
		store:    st,
		sync:     synchronizer,
		notices:  notices,
		hub:      hub,
		surface:  surface,
		snapshot: fakeSnapshots{exists: map[string]bool{}},
	}

	router := gin.New()
	RegisterRoutes(router, authService, Handlers{
		Auth:     NewAuthHandler(db, authService, newFakeRedis(), nil, 3),
		Site:     NewSiteHandler(st, surface, nil),
		Editor:   NewEditorHandler(synchronizer, notices, nil),
		Asset:    NewAssetHandler(upload.NewValidator(1024, nil), synchronizer, notices, nil),
		Snapshot: NewSnapshotHandler(env.snapshot, nil),
		Ws:       NewWsHandler(hub, authService, nil, nil),
	})
	env.router = router
	return env
}

func (e *testEnv) createUser(t *testing.T, username, password string, mustChange bool) database.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	user := database.User{Username: username, PasswordHash: hash, MustChangePassword: mustChange}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	pair, err := e.auth.GenerateTokenPair(1, "editor", false)
	require.NoError(t, err)
	return pair.AccessToken
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path string, body any, token string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func refreshCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshTokenCookieName {
			return c
		}
	}
	t.Fatal("refresh cookie missing")
	return nil
}

func TestLogin_ReturnsTokenAndUsername(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ada", "s3cret-pass", false)

	w := env.do(jsonRequest(http.MethodPost, "/v1/auth/login", gin.H{"username": "Ada", "password": "s3cret-pass"}, ""))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp tokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ada", resp.Username)
	assert.Equal(t, "Bearer", resp.TokenType)
	claims, err := env.auth.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ada", claims.Username)
	assert.NotEmpty(t, refreshCookie(t, w).Value)

	w = env.do(jsonRequest(http.MethodPost, "/v1/auth/login", gin.H{"username": "ada", "password": "nope"}, ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	body := gin.H{"username": "ghost", "password": "x"}
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusUnauthorized, env.do(jsonRequest(http.MethodPost, "/v1/auth/login", body, "")).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, env.do(jsonRequest(http.MethodPost, "/v1/auth/login", body, "")).Code)
}

func TestRefresh_RotatesAndLogoutRevokes(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ada", "s3cret-pass", false)
	w := env.do(jsonRequest(http.MethodPost, "/v1/auth/login", gin.H{"username": "ada", "password": "s3cret-pass"}, ""))
	require.Equal(t, http.StatusOK, w.Code)
	first := refreshCookie(t, w)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	req.AddCookie(first)
	w = env.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := refreshCookie(t, w)

	req = httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", nil)
	req.AddCookie(first)
	assert.Equal(t, http.StatusUnauthorized, env.do(req).Code)

	w = env.do(jsonRequest(http.MethodPost, "/v1/auth/logout", gin.H{"refresh_token": second.Value}, ""))
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(jsonRequest(http.MethodPost, "/v1/auth/refresh", gin.H{"refresh_token": second.Value}, ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPasswordGateAndChangePassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "fresh", "one-time-pass", true)

	w := env.do(jsonRequest(http.MethodPost, "/v1/auth/login", gin.H{"username": "fresh", "password": "one-time-pass"}, ""))
	require.Equal(t, http.StatusOK, w.Code)
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.MustChangePassword)

	assert.Equal(t, http.StatusForbidden, env.do(jsonRequest(http.MethodGet, "/v1/editor", nil, resp.AccessToken)).Code)

	w = env.do(jsonRequest(http.MethodPost, "/v1/auth/password", gin.H{"current_password": "one-time-pass", "new_password": "a-better-pass"}, resp.AccessToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.MustChangePassword)

	assert.Equal(t, http.StatusOK, env.do(jsonRequest(http.MethodGet, "/v1/editor", nil, resp.AccessToken)).Code)
}

func TestEditor_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusUnauthorized, env.do(jsonRequest(http.MethodGet, "/v1/editor", nil, "")).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(jsonRequest(http.MethodPost, "/v1/editor/save", nil, "")).Code)
}

func TestEditor_UpdateSaveAndPublicPage(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	w := env.do(jsonRequest(http.MethodPut, "/v1/editor/fields", gin.H{"hero.name": "Grace Hopper"}, token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(jsonRequest(http.MethodGet, "/preview", nil, token))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Grace Hopper")

	w = env.do(jsonRequest(http.MethodGet, "/", nil, ""))
	assert.NotContains(t, w.Body.String(), "Grace Hopper")

	w = env.do(jsonRequest(http.MethodPost, "/v1/editor/save", nil, token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var saved struct {
		Report editor.SaveReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.Equal(t, content.Defaults().Sections(), saved.Report.Saved)
	assert.Empty(t, saved.Report.Failed)

	w = env.do(jsonRequest(http.MethodGet, "/", nil, ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, htmlContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Grace Hopper")

	w = env.do(jsonRequest(http.MethodGet, "/v1/content", nil, ""))
	var site content.Site
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &site))
	assert.Equal(t, "Grace Hopper", site.Hero.Name)

	w = env.do(jsonRequest(http.MethodGet, "/v1/editor/notices", nil, token))
	assert.Contains(t, w.Body.String(), "All changes saved")
}

func TestEditor_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	w := env.do(jsonRequest(http.MethodPut, "/v1/editor/fields", gin.H{"form_config.googleForm.height": "tall"}, token))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"sections":["form_config"]`)

	w = env.do(jsonRequest(http.MethodPost, "/v1/editor/save", nil, token))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"failed":[{"section":"form_config"`)

	assert.Equal(t, http.StatusNotFound, env.do(jsonRequest(http.MethodPost, "/v1/editor/sections/nope/save", nil, token)).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, env.do(jsonRequest(http.MethodPost, "/v1/editor/theme", gin.H{"theme": "neon"}, token)).Code)
	assert.Equal(t, http.StatusOK, env.do(jsonRequest(http.MethodPost, "/v1/editor/theme", gin.H{"theme": "elegant"}, token)).Code)
}

func TestEditor_ListItems(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	w := env.do(jsonRequest(http.MethodPost, "/v1/editor/lists/experience", nil, token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var view editor.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	items := view.Items[content.SectionExperience]
	last := items[len(items)-1]

	w = env.do(jsonRequest(http.MethodPatch, "/v1/editor/lists/experience/"+last.ID, gin.H{"title": "Staff Engineer"}, token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Staff Engineer", env.sync.Site().Experience[len(items)-1].Title)

	assert.Equal(t, http.StatusOK, env.do(jsonRequest(http.MethodDelete, "/v1/editor/lists/experience/"+last.ID, nil, token)).Code)
	assert.Equal(t, http.StatusNotFound, env.do(jsonRequest(http.MethodDelete, "/v1/editor/lists/experience/"+last.ID, nil, token)).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, env.do(jsonRequest(http.MethodPost, "/v1/editor/lists/hero", nil, token)).Code)
}

func multipartUpload(t *testing.T, target string, data []byte, token string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("target", target))
	part, err := writer.CreateFormFile("file", "a.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/assets/inline", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAssetInline(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)
	before := env.sync.Site().Hero.Image

	w := env.do(multipartUpload(t, "hero", []byte("plain text, not an image"), token))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), upload.ReasonUnsupported)
	assert.Equal(t, before, env.sync.Site().Hero.Image)

	w = env.do(multipartUpload(t, "hero", bytes.Repeat(pngBytes, 100), token))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, before, env.sync.Site().Hero.Image)

	w = env.do(multipartUpload(t, "hero", pngBytes, token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(env.sync.Site().Hero.Image, "data:image/png;base64,"))

	w = env.do(multipartUpload(t, "sidebar", pngBytes, token))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSnapshotLatest(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	assert.Equal(t, http.StatusNotFound, env.do(jsonRequest(http.MethodGet, "/v1/snapshots/latest", nil, token)).Code)

	env.snapshot.exists["snapshots/site/latest.html"] = true
	w := env.do(jsonRequest(http.MethodGet, "/v1/snapshots/latest", nil, token))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://example.invalid/snapshots/site/latest.html")
}

func TestWebsocket_EditorMustAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/ws?role=editor"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(gin.H{"type": "REQUEST_WEBSITE_DATA"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	conn.Close()

	conn, _, err = websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.WriteJSON(wsAuthMessage{Type: "auth", Token: env.token(t)}))
	require.NoError(t, conn.WriteJSON(preview.Message{Type: preview.TypeRequestWebsiteData}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var reply preview.Message
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, preview.TypeWebsiteData, reply.Type)
	require.NotNil(t, reply.Data)
	assert.Equal(t, env.sync.Site().Hero.Name, reply.Data.Hero.Name)
}

func TestPreview_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.sync.UpdateFields(editor.Form{"hero.name": "Unsaved Draft"})
	require.NoError(t, err)

	w := env.do(jsonRequest(http.MethodGet, "/preview", nil, ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "Unsaved Draft")
}

func TestWebsocket_PreviewRoleMustAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/ws?role=preview"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(preview.Message{Type: preview.TypeRequestWebsiteData}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	conn.Close()

	conn, _, err = websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.WriteJSON(wsAuthMessage{Type: "auth", Token: env.token(t)}))
	require.NoError(t, conn.WriteJSON(preview.Message{Type: preview.TypeRequestWebsiteData}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var reply preview.Message
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, preview.TypeWebsiteData, reply.Type)
}

func TestWebsocket_RejectsForeignOrigin(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/v1/ws", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
