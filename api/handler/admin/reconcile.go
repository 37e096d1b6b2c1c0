package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/haophotography/gallery-backend/api/common"
	"github.com/haophotography/gallery-backend/internal/reconcile"
)

// ReconcileHandler 对账接口处理器
type ReconcileHandler struct {
	service *reconcile.Service
}

// NewReconcileHandler 创建对账处理器
func NewReconcileHandler(service *reconcile.Service) *ReconcileHandler {
	return &ReconcileHandler{service: service}
}

// ReconcileGalleriesHandler 以对象存储为准修复画廊记录
func (h *ReconcileHandler) ReconcileGalleriesHandler(c *gin.Context) {
	report, err := h.service.ReconcileGalleries(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "gallery reconciliation completed", report)
}

// ReconcilePhotosHandler 以对象存储为准修复照片记录
func (h *ReconcileHandler) ReconcilePhotosHandler(c *gin.Context) {
	report, err := h.service.ReconcilePhotos(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "photo reconciliation completed", report)
}
