package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cms-backend/internal/auth"
	"github.com/iliyamo/cms-backend/internal/handler"
	"github.com/iliyamo/cms-backend/internal/logger"
	"github.com/iliyamo/cms-backend/internal/middleware"
	"github.com/iliyamo/cms-backend/internal/queue"
	"github.com/iliyamo/cms-backend/internal/service"
	"github.com/iliyamo/cms-backend/internal/storage"
)

const (
	secret        = "test-secret"
	adminPassword = "admin-pw"
)

type testServer struct {
	e      *echo.Echo
	mock   sqlmock.Sqlmock
	tokens *auth.Tokens
	dir    string
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	return newServerWithGate(t, auth.NewAdminGate(adminPassword, true))
}

func newServerWithGate(t *testing.T, gate *auth.AdminGate) *testServer {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	dir := t.TempDir()
	store, err := storage.NewLocal(dir)
	require.NoError(t, err)

	log := logger.Discard()
	tokens := auth.NewTokens(secret)
	ready := &atomic.Bool{}
	ready.Store(true)

	e := New(Deps{
		Log:            log,
		Resolver:       auth.NewResolver(tokens),
		AdminGate:      gate,
		RequestTimeout: 5 * time.Second,
		MaxUploadBytes: 1 << 20,
		UploadDir:      dir,
		Health:         handler.NewHealthHandler(ready, "1.2.3"),
		Auth:           handler.NewAuthHandler(service.NewAuthService(db, tokens, 4)),
		Contents:       handler.NewContentHandler(service.NewContentService(db, queue.Nop{}, log)),
		Chapters:       handler.NewChapterHandler(service.NewChapterService(db, queue.Nop{}, log)),
		Taxonomy:       handler.NewTaxonomyHandler(service.NewTaxonomyService(db)),
		Uploads:        handler.NewUploadHandler(service.NewUploadService(store, 1<<20)),
	})
	return &testServer{e: e, mock: mock, tokens: tokens, dir: dir}
}

func (s *testServer) token(t *testing.T, id uint64, name string) string {
	t.Helper()
	tok, err := s.tokens.Issue(auth.Identity{UserID: id, Username: name, Role: "author"})
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, r)
	return rec
}

func bearer(tok string) map[string]string {
	return map[string]string{echo.HeaderAuthorization: "Bearer " + tok}
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

var contentCols = []string{
	"id", "title", "description", "content_type_id", "metadata", "cover_image", "status",
	"author_user_id", "author_username", "created_at", "updated_at", "name", "display_name", "tags",
}

func contentRows(id uint64, status string, owner any) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(contentCols).
		AddRow(id, "A Title", nil, 1, []byte(`{}`), nil, status, owner, nil, now, now, "novel", "Novel", "go,web")
}

func TestHealthVersionRoot(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","dbReady":true}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/version", "", nil)
	assert.JSONEq(t, `{"version":"1.2.3"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestDraftIsNotFoundForAnonymous(t *testing.T) {
	s := newServer(t)
	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE c.id = ?")).WithArgs(9).WillReturnRows(contentRows(9, "draft", 1))

	rec := s.do(http.MethodGet, "/api/contents/9", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, http.StatusNotFound, env.Code)
	assert.Equal(t, "null", string(env.Data))
}

func TestDraftHiddenWhenAdminPasswordUnset(t *testing.T) {
	s := newServerWithGate(t, auth.NewAdminGate("", true))
	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE c.id = ?")).WithArgs(9).WillReturnRows(contentRows(9, "draft", 1))

	rec := s.do(http.MethodGet, "/api/contents/9", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// mutations still fail open without a configured password
	s.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM contents WHERE id = ?")).WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	rec = s.do(http.MethodDelete, "/api/contents/3", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDraftVisibleWithAdminPassword(t *testing.T) {
	s := newServer(t)
	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE c.id = ?")).WithArgs(9).WillReturnRows(contentRows(9, "draft", 1))

	rec := s.do(http.MethodGet, "/api/contents/9", "", map[string]string{middleware.HeaderAdminPassword: adminPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env := decode(t, rec)
	assert.Equal(t, 0, env.Code)

	var c struct {
		ID   uint64   `json:"id"`
		Tags []string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &c))
	assert.Equal(t, uint64(9), c.ID)
	assert.Equal(t, []string{"go", "web"}, c.Tags)
}

func TestRegisterThenDuplicate(t *testing.T) {
	s := newServer(t)

	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users")).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at"}).
			AddRow(1, "alice", "hash", "author", time.Now()))
	s.mock.ExpectCommit()

	rec := s.do(http.MethodPost, "/api/auth/register", `{"username":"alice","password":"secret1"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env := decode(t, rec)
	assert.NotContains(t, string(env.Data), "password_hash")
	assert.NotContains(t, string(env.Data), "hash\"")

	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.NotEmpty(t, res.Token)

	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users")).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rec = s.do(http.MethodPost, "/api/auth/register", `{"username":"alice","password":"secret1"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, http.StatusConflict, decode(t, rec).Code)
}

func TestMeRequiresBearer(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/auth/me", "", bearer("not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateByNonOwnerIsForbidden(t *testing.T) {
	s := newServer(t)
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"author_user_id", "author_username", "status"}).AddRow(1, "alice", "published"))
	s.mock.ExpectRollback()

	rec := s.do(http.MethodPut, "/api/contents/3", `{"title":"mine now"}`, bearer(s.token(t, 2, "bob")))
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}

func TestMineWithoutBearerIsUnauthenticated(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/api/contents?mine=true", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/contents?mine=true", "", bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListClampsPaging(t *testing.T) {
	s := newServer(t)
	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).WithArgs("published").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	s.mock.ExpectQuery(regexp.QuoteMeta("LIMIT ? OFFSET ?")).WithArgs("published", 100, 0).
		WillReturnRows(sqlmock.NewRows(contentCols))

	rec := s.do(http.MethodGet, "/api/contents?page=-3&limit=1000", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"data":[],"pagination":{"page":1,"limit":100,"total":0,"pages":0}}`, string(decode(t, rec).Data))
}

func TestDeleteRequiresAdminPassword(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodDelete, "/api/contents/3", "", bearer(s.token(t, 1, "alice")))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "admin password required", decode(t, rec).Msg)

	s.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM contents WHERE id = ?")).WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	rec = s.do(http.MethodDelete, "/api/contents/3", "", map[string]string{middleware.HeaderAdminPassword: adminPassword})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateTagWithPasswordInBody(t *testing.T) {
	s := newServer(t)
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tags (name, color)")).WithArgs("go", "#007bff").
		WillReturnResult(sqlmock.NewResult(5, 1))
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM tags WHERE id = ?")).WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color", "created_at"}).AddRow(5, "go", "#007bff", time.Now()))

	rec := s.do(http.MethodPost, "/api/tags", `{"name":"go","password":"`+adminPassword+`"}`, nil)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/tags", `{"name":"a,b","password":"`+adminPassword+`"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidIDIsBadRequest(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodGet, "/api/contents/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadAndServe(t *testing.T) {
	s := newServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "cover.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.token(t, 1, "alice"))
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &out))
	require.True(t, strings.HasPrefix(out.URL, "/uploads/"), out.URL)

	_, err = os.Stat(filepath.Join(s.dir, strings.TrimPrefix(out.URL, "/uploads/")))
	require.NoError(t, err)

	rec = s.do(http.MethodGet, out.URL, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "\x89PNG fake", rec.Body.String())
}

func TestUploadRequiresBearer(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodPost, "/api/upload", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	assert.Equal(t, "10M", bodyLimit(0))
	assert.Equal(t, "11M", bodyLimit(10<<20))
	assert.Equal(t, "3M", bodyLimit(1<<20+1))
}

func TestCORSPreflightAllowsAdminHeader(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/contents", nil)
	req.Header.Set(echo.HeaderOrigin, "http://example.com")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodDelete)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowHeaders), middleware.HeaderAdminPassword)
}
