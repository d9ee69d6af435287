package routes

import (
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/miniblog/config"
	"github.com/cppla/miniblog/models"
)

const testPassword = "let-me-in"

var siteURL, _ = url.Parse("http://example.com/")

type client struct {
	t   *testing.T
	r   *gin.Engine
	jar *cookiejar.Jar
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	cfg := config.AppConfig{
		AdminPassword:       testPassword,
		SecretKey:           "test-secret",
		DBDriver:            "sqlite",
		DatabaseURI:         filepath.Join(t.TempDir(), "blog.db"),
		PerPage:             20,
		SiteWidth:           800,
		SessionLifetimeDays: 31,
		GinMode:             "test",
		LogLevel:            "silent",
	}
	db, err := config.InitDatabase(cfg, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	r, err := SetupRouter(db, cfg)
	require.NoError(t, err)
	return r, db
}

func newClient(t *testing.T, r *gin.Engine) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, r: r, jar: jar}
}

func (c *client) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, cookie := range c.jar.Cookies(siteURL) {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	c.jar.SetCookies(siteURL, w.Result().Cookies())
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, path, nil)
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, path, form)
}

func (c *client) login() {
	c.t.Helper()
	w := c.post("/login/", url.Values{"password": {testPassword}})
	require.Equal(c.t, http.StatusFound, w.Code)
}

func countPosts(t *testing.T, db *gorm.DB) int64 {
	var n int64
	require.NoError(t, db.Model(&models.Post{}).Count(&n).Error)
	return n
}

func TestLoginAndLogout(t *testing.T) {
	r, _ := newTestRouter(t)
	c := newClient(t, r)

	w := c.get("/login/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="password"`)

	w = c.post("/login/", url.Values{"password": {"wrong"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Incorrect password.")

	w = c.post("/login/", url.Values{"password": {""}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Incorrect password.")

	w = c.post("/login/?next=/drafts/", url.Values{"password": {testPassword}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/drafts/", w.Header().Get("Location"))

	w = c.get("/drafts/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "You are now logged in.")

	stolen := c.jar.Cookies(siteURL)
	require.NotEmpty(t, stolen)

	w = c.get("/logout/")
	assert.Equal(t, http.StatusOK, w.Code)

	w = c.post("/logout/", url.Values{})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login/", w.Header().Get("Location"))

	w = c.get("/create/")
	assert.Equal(t, http.StatusFound, w.Code)

	replay := httptest.NewRequest(http.MethodGet, "/create/", nil)
	for _, cookie := range stolen {
		replay.AddCookie(cookie)
	}
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, replay)
	assert.Equal(t, http.StatusFound, rw.Code)
}

func TestLogin_OnlyFollowsLocalNext(t *testing.T) {
	r, _ := newTestRouter(t)

	for next, want := range map[string]string{
		"/create/":           "/create/",
		"//evil.example/":    "/",
		"https://evil.test/": "/",
		`/\evil.example`:     "/",
		"":                   "/",
	} {
		c := newClient(t, r)
		w := c.post("/login/", url.Values{"password": {testPassword}, "next": {next}})
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, want, w.Header().Get("Location"), "next %q", next)
	}
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	r, _ := newTestRouter(t)
	c := newClient(t, r)

	for path, next := range map[string]string{
		"/create/":         "%2Fcreate%2F",
		"/drafts/":         "%2Fdrafts%2F",
		"/some-post/edit/": "%2Fsome-post%2Fedit%2F",
	} {
		w := c.get(path)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/login/?next="+next, w.Header().Get("Location"), path)
	}

	w := c.post("/create/", url.Values{"title": {"x"}, "content": {"y"}})
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestCreate_RequiresTitleAndContent(t *testing.T) {
	r, db := newTestRouter(t)
	c := newClient(t, r)
	c.login()

	w := c.post("/create/", url.Values{"title": {""}, "content": {"some body"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Title and Content are required.")
	assert.Contains(t, w.Body.String(), "some body")

	w = c.post("/create/", url.Values{"title": {"A title"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Title and Content are required.")

	assert.Zero(t, countPosts(t, db))
}

func TestCreatePublishedAndDraft(t *testing.T) {
	r, db := newTestRouter(t)
	c := newClient(t, r)
	c.login()

	w := c.post("/create/", url.Values{"title": {"Hello World"}, "content": {"First post"}, "published": {"y"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/hello-world/", w.Header().Get("Location"))

	w = c.get("/hello-world/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Article saved successfully.")
	assert.Contains(t, w.Body.String(), "First post")

	w = c.post("/create/", url.Values{"title": {"My Draft"}, "content": {"Unfinished"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/my-draft/edit/", w.Header().Get("Location"))

	w = c.get("/my-draft/edit/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Unfinished")

	w = c.get("/drafts/")
	assert.Contains(t, w.Body.String(), "My Draft")
	assert.NotContains(t, w.Body.String(), "Hello World")

	w = c.get("/")
	assert.Contains(t, w.Body.String(), "Hello World")
	assert.NotContains(t, w.Body.String(), "My Draft")

	assert.EqualValues(t, 2, countPosts(t, db))
}

func TestDraftDetailVisibility(t *testing.T) {
	r, _ := newTestRouter(t)
	author := newClient(t, r)
	author.login()
	w := author.post("/create/", url.Values{"title": {"Hidden thoughts"}, "content": {"draft body"}})
	require.Equal(t, http.StatusFound, w.Code)

	anon := newClient(t, r)
	w = anon.get("/hidden-thoughts/")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Not found")

	w = author.get("/hidden-thoughts/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "draft body")
}

func TestCreate_DuplicateSlug(t *testing.T) {
	r, db := newTestRouter(t)
	c := newClient(t, r)
	c.login()

	w := c.post("/create/", url.Values{"title": {"Hello World"}, "content": {"one"}, "published": {"y"}})
	require.Equal(t, http.StatusFound, w.Code)

	w = c.post("/create/", url.Values{"title": {"hello world!"}, "content": {"two"}, "published": {"y"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Error: this title is already in use.")
	assert.EqualValues(t, 1, countPosts(t, db))
}

func TestEdit_KeepsSlug(t *testing.T) {
	r, _ := newTestRouter(t)
	c := newClient(t, r)
	c.login()

	w := c.post("/create/", url.Values{"title": {"Launch notes"}, "content": {"v1"}})
	require.Equal(t, http.StatusFound, w.Code)

	w = c.post("/launch-notes/edit/", url.Values{"title": {"Renamed"}, "content": {"v2"}, "published": {"y"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/launch-notes/", w.Header().Get("Location"))

	w = c.get("/launch-notes/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Renamed")
	assert.Contains(t, w.Body.String(), "v2")

	w = c.get("/missing/edit/")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIndexSearchAndPaging(t *testing.T) {
	r, _ := newTestRouter(t)
	c := newClient(t, r)
	c.login()
	c.post("/create/", url.Values{"title": {"Gardening"}, "content": {"tomatoes grow well"}, "published": {"y"}})
	c.post("/create/", url.Values{"title": {"Cooking"}, "content": {"tomatoes and pasta"}})

	anon := newClient(t, r)
	w := anon.get("/?q=tomatoes")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Gardening")
	assert.NotContains(t, w.Body.String(), "Cooking")

	w = anon.get("/?q=nothingmatches")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No search results.")

	w = anon.get("/?q=+")
	assert.Equal(t, http.StatusOK, w.Code)

	w = anon.get("/?q=tomatoes+-")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Gardening")

	w = anon.get("/?q=tomatoes&page=3")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Not found")

	w = anon.get("/?page=5")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = anon.get("/?page=1")
	assert.Equal(t, http.StatusOK, w.Code)

	w = c.get("/drafts/?page=9")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNotFoundAndHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	c := newClient(t, r)

	w := c.get("/no/such/page/")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Not found")

	w = c.get("/unknown-slug/")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = c.get("/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":0,"message":"success","data":{"status":"ok"}}`, w.Body.String())
}

func TestCreate_RejectsTitleWithoutSlug(t *testing.T) {
	r, db := newTestRouter(t)
	c := newClient(t, r)
	c.login()

	w := c.post("/create/", url.Values{"title": {"?!"}, "content": {"body"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Title must contain at least one letter or digit.")
	assert.Zero(t, countPosts(t, db))
}
