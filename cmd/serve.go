package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haophotography/gallery-backend/api/core"
	"github.com/haophotography/gallery-backend/cache"
	"github.com/haophotography/gallery-backend/config"
	"github.com/haophotography/gallery-backend/database/dbcore"
	"github.com/haophotography/gallery-backend/database/repo/galleries"
	"github.com/haophotography/gallery-backend/database/repo/photos"
	"github.com/haophotography/gallery-backend/database/repo/ratings"
	"github.com/haophotography/gallery-backend/database/repo/subscriptions"
	"github.com/haophotography/gallery-backend/internal/gallery"
	"github.com/haophotography/gallery-backend/internal/geocode"
	"github.com/haophotography/gallery-backend/internal/photo"
	"github.com/haophotography/gallery-backend/internal/rating"
	"github.com/haophotography/gallery-backend/internal/reconcile"
	"github.com/haophotography/gallery-backend/internal/subscription"
	"github.com/haophotography/gallery-backend/storage"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		RunServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer() {
	deps := bootstrap()
	cfg := config.Get()

	server := core.StartServer(deps)
	go func() {
		log.Printf("Server started on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// 处理退出signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	shutdown(deps)

	log.Println("Server exited successfully")
}

// bootstrap 初始化配置、数据库、存储、缓存与业务服务
func bootstrap() *core.ServerDependencies {
	config.InitConfig()
	cfg := config.Get()

	if cfg.DBType == "sqlite" {
		if err := os.MkdirAll("./data", os.ModePerm); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}

	db := dbcore.GetDBInstance()
	if err := dbcore.AutoMigrateDB(db); err != nil {
		log.Fatalf("Failed to auto migrate database: %v", err)
	}

	store, err := storage.NewMinioStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	cacheProvider, err := cache.NewProvider(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	log.Printf("Cache provider: %s", cacheProvider.Name())

	geocoder := geocode.NewClient(cfg.GeocodeEndpoint, cfg.GeocodeUserAgent, cfg.GeocodeTimeout, cacheProvider)

	galleryRepo := galleries.NewRepository(db)
	photoRepo := photos.NewRepository(db)
	ratingRepo := ratings.NewRepository(db)
	subscriptionRepo := subscriptions.NewRepository(db)

	limits := photo.Limits{
		MaxPhotoBytes: int64(cfg.UploadMaxPhotoMB) << 20,
		MaxBatchBytes: int64(cfg.UploadMaxBatchTotalMB) << 20,
		ThumbMaxEdge:  cfg.ThumbnailMaxEdge,
		ThumbQuality:  cfg.ThumbnailQuality,
		PresignExpiry: cfg.PresignExpiry,
	}

	return &core.ServerDependencies{
		DB:                  db,
		Storage:             store,
		Cache:               cacheProvider,
		GalleryService:      gallery.NewService(galleryRepo, photoRepo, store, geocoder),
		PhotoService:        photo.NewService(galleryRepo, photoRepo, store, limits),
		RatingService:       rating.NewService(ratingRepo, photoRepo),
		SubscriptionService: subscription.NewService(subscriptionRepo),
		ReconcileService:    reconcile.NewService(galleryRepo, photoRepo, store),
	}
}

// shutdown 释放数据库与缓存连接
func shutdown(deps *core.ServerDependencies) {
	if deps.Cache != nil {
		if err := deps.Cache.Close(); err != nil {
			log.Printf("Error closing cache: %v", err)
		}
	}
	if err := dbcore.CloseDB(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}
