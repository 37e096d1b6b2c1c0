package core

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/haophotography/gallery-backend/cache"
	"github.com/haophotography/gallery-backend/config"
	"github.com/haophotography/gallery-backend/internal/gallery"
	"github.com/haophotography/gallery-backend/internal/photo"
	"github.com/haophotography/gallery-backend/internal/rating"
	"github.com/haophotography/gallery-backend/internal/reconcile"
	"github.com/haophotography/gallery-backend/internal/subscription"
	"github.com/haophotography/gallery-backend/storage"
	"gorm.io/gorm"
)

// ServerDependencies 服务器依赖项
type ServerDependencies struct {
	DB                  *gorm.DB
	Storage             storage.Provider
	Cache               cache.Provider
	GalleryService      *gallery.Service
	PhotoService        *photo.Service
	RatingService       *rating.Service
	SubscriptionService *subscription.Service
	ReconcileService    *reconcile.Service
}

// setupRouter 启动 gin
func setupRouter(deps *ServerDependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.SetTrustedProxies(nil)

	RegisterRoutes(router, deps)

	return router
}

// StartServer 创建 http.Server
func StartServer(deps *ServerDependencies) *http.Server {
	cfg := config.Get()
	router := setupRouter(deps)

	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}
}
