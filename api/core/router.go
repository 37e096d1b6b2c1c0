package core

import (
	"github.com/gin-gonic/gin"
	handlerAdmin "github.com/haophotography/gallery-backend/api/handler/admin"
	handlerGalleries "github.com/haophotography/gallery-backend/api/handler/galleries"
	handlerRatings "github.com/haophotography/gallery-backend/api/handler/ratings"
	handlerSubscriptions "github.com/haophotography/gallery-backend/api/handler/subscriptions"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine, deps *ServerDependencies) {
	healthHandler := NewHealthHandler(deps)
	router.GET("/health", healthHandler.Handle)

	galleryHandler := handlerGalleries.NewHandler(deps.GalleryService)
	photoHandler := handlerGalleries.NewPhotoHandler(deps.PhotoService)
	ratingHandler := handlerRatings.NewHandler(deps.RatingService)
	subscriptionHandler := handlerSubscriptions.NewHandler(deps.SubscriptionService)
	reconcileHandler := handlerAdmin.NewReconcileHandler(deps.ReconcileService)

	apiGroup := router.Group("/api")
	apiGroup.Use(func(context *gin.Context) { // 所有API禁止缓存
		context.Header("Cache-Control", "no-store")
		context.Next()
	})

	v1 := apiGroup.Group("/v1")
	{
		galleriesGroup := v1.Group("/galleries")
		{
			galleriesGroup.POST("", galleryHandler.CreateGalleryHandler)            // POST /api/v1/galleries
			galleriesGroup.GET("", galleryHandler.ListGalleriesHandler)             // GET /api/v1/galleries
			galleriesGroup.POST("/reorder", galleryHandler.ReorderGalleriesHandler) // POST /api/v1/galleries/reorder
			galleriesGroup.GET("/:id", galleryHandler.GetGalleryHandler)            // GET /api/v1/galleries/{id}
			galleriesGroup.PUT("/:id", galleryHandler.UpdateGalleryHandler)         // PUT /api/v1/galleries/{id}
			galleriesGroup.DELETE("/:id", galleryHandler.DeleteGalleryHandler)      // DELETE /api/v1/galleries/{id}

			// 画廊照片管理
			galleriesGroup.POST("/:id/photos", photoHandler.UploadPhotosHandler)            // POST /api/v1/galleries/{id}/photos
			galleriesGroup.POST("/:id/photos/records", photoHandler.RegisterRecordsHandler) // POST /api/v1/galleries/{id}/photos/records
			galleriesGroup.POST("/:id/photos/reorder", photoHandler.ReorderPhotosHandler)   // POST /api/v1/galleries/{id}/photos/reorder
			galleriesGroup.POST("/:id/photos/delete", photoHandler.DeletePhotoHandler)      // POST /api/v1/galleries/{id}/photos/delete
			galleriesGroup.POST("/:id/upload-urls", photoHandler.UploadURLsHandler)         // POST /api/v1/galleries/{id}/upload-urls
		}

		ratingsGroup := v1.Group("/ratings")
		{
			ratingsGroup.POST("", ratingHandler.SubmitRatingHandler)  // POST /api/v1/ratings
			ratingsGroup.GET("", ratingHandler.GetRatingStatsHandler) // GET /api/v1/ratings?photoId=...
		}

		v1.POST("/subscriptions", subscriptionHandler.SubscribeHandler) // POST /api/v1/subscriptions

		adminGroup := v1.Group("/admin")
		{
			adminGroup.POST("/reconcile/galleries", reconcileHandler.ReconcileGalleriesHandler) // POST /api/v1/admin/reconcile/galleries
			adminGroup.POST("/reconcile/photos", reconcileHandler.ReconcilePhotosHandler)       // POST /api/v1/admin/reconcile/photos
		}
	}
}
