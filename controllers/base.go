package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/miniblog/middleware"
	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/services"
	"github.com/cppla/miniblog/utils"
)

// pageData is what every page template receives. The layout needs the session fields, the
// rest is filled per page.
type pageData struct {
	Flashes   []utils.Flash
	LoggedIn  bool
	SiteWidth int
	Query     url.Values

	Search string
	Drafts bool
	Page   any

	Post        *models.Post
	FormAction  string
	SubmitLabel string

	NextURL string
}

type base struct {
	siteWidth int
}

// render consumes the pending flashes and renders name with data.
func (b *base) render(ctx *gin.Context, status int, name string, data *pageData) {
	s := middleware.CurrentSession(ctx)
	data.Flashes = s.TakeFlashes()
	data.LoggedIn = s.LoggedIn
	data.SiteWidth = b.siteWidth
	data.Query = ctx.Request.URL.Query()
	ctx.HTML(status, name, data)
}

func (b *base) redirect(ctx *gin.Context, location string) {
	ctx.Redirect(http.StatusFound, location)
}

// NotFound renders the not-found page.
func (b *base) NotFound(ctx *gin.Context) {
	b.render(ctx, http.StatusNotFound, "page_not_found.html", &pageData{})
}

// fail turns a service error into the matching response.
func (b *base) fail(ctx *gin.Context, err error) {
	switch services.StatusFor(err) {
	case http.StatusNotFound:
		b.NotFound(ctx)
	default:
		utils.Sugar.Errorw("request failed", "path", ctx.Request.URL.Path, "err", err)
		_ = ctx.Error(err)
		ctx.AbortWithStatus(http.StatusInternalServerError)
	}
}

// localPath returns next when it stays on this site, "/" otherwise.
func localPath(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func postURL(post *models.Post) string {
	return "/" + url.PathEscape(post.Slug) + "/"
}

func editURL(post *models.Post) string {
	return postURL(post) + "edit/"
}
