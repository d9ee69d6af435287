package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// LoginRequired sends anonymous visitors to the login page, remembering where they were going.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if CurrentSession(ctx).LoggedIn {
			ctx.Next()
			return
		}
		ctx.Redirect(http.StatusFound, "/login/?next="+url.QueryEscape(ctx.Request.URL.Path))
		ctx.Abort()
	}
}
