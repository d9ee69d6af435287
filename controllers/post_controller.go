package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/cppla/miniblog/middleware"
	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/services"
	"github.com/cppla/miniblog/utils"
)

// PostController serves the listing, detail and editor pages.
type PostController struct {
	base
	posts *services.PostService
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService, siteWidth int) *PostController {
	return &PostController{base: base{siteWidth: siteWidth}, posts: posts}
}

type postForm struct {
	Title     string `form:"title"`
	Content   string `form:"content"`
	Published string `form:"published"`
}

// Index lists published posts, or search results when q is given.
func (p *PostController) Index(ctx *gin.Context) {
	page := utils.ParsePage(ctx.Query("page"))

	if q := ctx.Query("q"); q != "" {
		result, err := p.posts.Search(ctx.Request.Context(), q, page)
		if err != nil {
			p.fail(ctx, err)
			return
		}
		p.render(ctx, http.StatusOK, "index.html", &pageData{Search: q, Page: result})
		return
	}

	result, err := p.posts.Public(ctx.Request.Context(), page)
	if err != nil {
		p.fail(ctx, err)
		return
	}
	p.render(ctx, http.StatusOK, "index.html", &pageData{Page: result})
}

// Drafts lists unpublished posts. Pages past the end render empty.
func (p *PostController) Drafts(ctx *gin.Context) {
	result, err := p.posts.Drafts(ctx.Request.Context(), utils.ParsePage(ctx.Query("page")))
	if err != nil {
		p.fail(ctx, err)
		return
	}
	p.render(ctx, http.StatusOK, "index.html", &pageData{Drafts: true, Page: result})
}

// Detail shows one post. Drafts are visible only to a logged in session.
func (p *PostController) Detail(ctx *gin.Context) {
	loggedIn := middleware.CurrentSession(ctx).LoggedIn
	post, err := p.posts.GetBySlug(ctx.Request.Context(), ctx.Param("slug"), loggedIn)
	if err != nil {
		p.fail(ctx, err)
		return
	}
	p.render(ctx, http.StatusOK, "detail.html", &pageData{Post: post})
}

func (p *PostController) Create(ctx *gin.Context) {
	p.createOrEdit(ctx, &models.Post{}, "create.html", "/create/", "Create")
}

func (p *PostController) Edit(ctx *gin.Context) {
	post, err := p.posts.GetBySlug(ctx.Request.Context(), ctx.Param("slug"), true)
	if err != nil {
		p.fail(ctx, err)
		return
	}
	p.createOrEdit(ctx, post, "edit.html", editURL(post), "Save")
}

// createOrEdit applies a submitted form to post and saves it. Invalid input and slug
// collisions redisplay the form with the submitted values.
func (p *PostController) createOrEdit(ctx *gin.Context, post *models.Post, name, action, submit string) {
	if ctx.Request.Method == http.MethodPost {
		s := middleware.CurrentSession(ctx)

		var form postForm
		if err := ctx.ShouldBind(&form); err != nil {
			utils.Sugar.Warnf("post form bind failed: %v", err)
		}
		post.Title = form.Title
		post.Content = form.Content
		post.Published = form.Published != ""

		err := p.posts.Save(ctx.Request.Context(), post)
		switch {
		case err == nil:
			s.Flash("success", "Article saved successfully.")
			if post.Published {
				p.redirect(ctx, postURL(post))
			} else {
				p.redirect(ctx, editURL(post))
			}
			return
		case errors.Is(err, services.ErrValidation):
			s.Flash("danger", "Title and Content are required.")
		case errors.Is(err, services.ErrEmptySlug):
			s.Flash("danger", "Title must contain at least one letter or digit.")
		case errors.Is(err, services.ErrDuplicateSlug):
			s.Flash("danger", "Error: this title is already in use.")
		default:
			p.fail(ctx, err)
			return
		}
	}

	p.render(ctx, http.StatusOK, name, &pageData{Post: post, FormAction: action, SubmitLabel: submit})
}
