package route

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fonsecaaso/tinylinks/go-server/internal/handler"
	"github.com/fonsecaaso/tinylinks/go-server/internal/middleware"
	"github.com/fonsecaaso/tinylinks/go-server/internal/token"
)

type Dependencies struct {
	Links         handler.LinkStore
	Users         handler.UserStore
	Tokens        *token.Manager
	SessionCookie handler.SessionCookie
	CORSOrigins   []string
}

func SetupRouter(deps Dependencies) *gin.Engine {
	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.MetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.SessionIdentity(deps.Tokens, deps.SessionCookie.Name))

	authHandler := handler.NewAuthHandler(deps.Users, deps.Tokens, deps.SessionCookie)
	urlHandler := handler.NewURLHandler(deps.Links)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/", urlHandler.Root)
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)

	urls := r.Group("/urls")
	urls.GET("", urlHandler.ListLinks)
	urls.POST("", urlHandler.CreateLink)
	urls.GET("/:code", urlHandler.GetLink)
	urls.PUT("/:code", urlHandler.UpdateLink)
	urls.DELETE("/:code", urlHandler.DeleteLink)

	r.GET("/u/:code", urlHandler.Redirect)

	return r
}
