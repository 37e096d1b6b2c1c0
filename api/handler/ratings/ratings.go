package ratings

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/haophotography/gallery-backend/api/common"
	"github.com/haophotography/gallery-backend/internal/rating"
)

// Handler 评分接口处理器
type Handler struct {
	service *rating.Service
}

// NewHandler 创建评分处理器
func NewHandler(service *rating.Service) *Handler {
	return &Handler{service: service}
}

// SubmitRatingHandler 提交评分，0 分表示撤回
func (h *Handler) SubmitRatingHandler(c *gin.Context) {
	var req rating.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.service.Submit(c.Request.Context(), &req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, result)
}

// GetRatingStatsHandler 查询照片评分统计。
// photoId 为必填 query 参数，deviceId 可选，带上则返回该设备的评分。
func (h *Handler) GetRatingStatsHandler(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context(), c.Query("photoId"), c.Query("deviceId"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, stats)
}
