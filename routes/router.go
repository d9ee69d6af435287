package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/miniblog/config"
	"github.com/cppla/miniblog/controllers"
	"github.com/cppla/miniblog/middleware"
	"github.com/cppla/miniblog/services"
	"github.com/cppla/miniblog/templates"
	"github.com/cppla/miniblog/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, cfg config.AppConfig) (*gin.Engine, error) {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// access log goes to its own rolling file when configured
	accessLog := utils.Logger
	if cfg.GinPath != "" {
		gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg)
		if err != nil {
			utils.Sugar.Warnf("gin access log disabled: %v", err)
		} else {
			accessLog = gl
		}
	}
	r.Use(ginzap.Ginzap(accessLog, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(accessLog, true))

	if len(cfg.AllowedOrigins) > 0 {
		corsCfg := cors.Config{
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}
		if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
			corsCfg.AllowAllOrigins = true
			corsCfg.AllowCredentials = false
		} else {
			corsCfg.AllowOrigins = cfg.AllowedOrigins
		}
		r.Use(cors.New(corsCfg))
	}

	r.Use(middleware.RateLimit(cfg.RateLimitPerMinute))

	renderer, err := templates.New()
	if err != nil {
		return nil, err
	}
	r.HTMLRender = renderer

	posts, err := services.NewPostService(db, cfg.PerPage, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	if err != nil {
		return nil, err
	}
	codec := utils.NewSessionCodec(cfg.SecretKey, time.Duration(cfg.SessionLifetimeDays)*24*time.Hour, cfg.CookieSecure)

	authController := controllers.NewAuthController(services.NewSharedPassword(cfg.AdminPassword), codec, cfg.SiteWidth)
	postController := controllers.NewPostController(posts, cfg.SiteWidth)

	r.GET("/healthz", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	site := r.Group("")
	site.Use(middleware.SessionLoader(codec))

	site.GET("/login/", authController.Login)
	site.POST("/login/", authController.Login)
	site.GET("/logout/", authController.Logout)
	site.POST("/logout/", authController.Logout)

	site.GET("/", postController.Index)
	site.GET("/:slug/", postController.Detail)

	protected := site.Group("")
	protected.Use(middleware.LoginRequired())
	protected.GET("/create/", postController.Create)
	protected.POST("/create/", postController.Create)
	protected.GET("/drafts/", postController.Drafts)
	protected.GET("/:slug/edit/", postController.Edit)
	protected.POST("/:slug/edit/", postController.Edit)

	r.NoRoute(middleware.SessionLoader(codec), postController.NotFound)

	return r, nil
}
