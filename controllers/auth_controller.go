package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/miniblog/middleware"
	"github.com/cppla/miniblog/services"
	"github.com/cppla/miniblog/utils"
)

// AuthController handles login and logout.
type AuthController struct {
	base
	auth  services.Authenticator
	codec *utils.SessionCodec
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(auth services.Authenticator, codec *utils.SessionCodec, siteWidth int) *AuthController {
	return &AuthController{base: base{siteWidth: siteWidth}, auth: auth, codec: codec}
}

// Login shows the password form and logs the session in on a correct password.
// An empty password just redisplays the form.
func (a *AuthController) Login(ctx *gin.Context) {
	nextURL := ctx.Query("next")
	if nextURL == "" {
		nextURL = ctx.PostForm("next")
	}

	if ctx.Request.Method == http.MethodPost {
		if password := ctx.PostForm("password"); password != "" {
			s := middleware.CurrentSession(ctx)
			if a.auth.Authenticate(password) {
				s.LogIn()
				s.Flash("success", "You are now logged in.")
				utils.Sugar.Infow("login", "ip", ctx.ClientIP())
				a.redirect(ctx, localPath(nextURL))
				return
			}
			utils.Sugar.Infow("login failed", "ip", ctx.ClientIP())
			s.Flash("danger", "Incorrect password.")
		}
	}

	a.render(ctx, http.StatusOK, "login.html", &pageData{NextURL: nextURL})
}

// Logout asks for confirmation on GET and ends the session on POST.
func (a *AuthController) Logout(ctx *gin.Context) {
	if ctx.Request.Method != http.MethodPost {
		a.render(ctx, http.StatusOK, "logout.html", &pageData{})
		return
	}

	s := middleware.CurrentSession(ctx)
	if s.LoggedIn {
		utils.RevokeSession(ctx.Request.Context(), s.ID, a.codec.RevocationDeadline(s))
	}
	s.Clear()
	a.redirect(ctx, "/login/")
}
