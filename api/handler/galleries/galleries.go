package galleries

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/haophotography/gallery-backend/api/common"
	"github.com/haophotography/gallery-backend/internal/gallery"
	"github.com/haophotography/gallery-backend/internal/sortorder"
)

// Handler 画廊接口处理器
type Handler struct {
	service *gallery.Service
}

// NewHandler 创建画廊处理器
func NewHandler(service *gallery.Service) *Handler {
	return &Handler{service: service}
}

// CreateGalleryHandler 创建画廊
func (h *Handler) CreateGalleryHandler(c *gin.Context) {
	var req gallery.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	created, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondCreated(c, "gallery created", created)
}

// ListGalleriesHandler 列出全部画廊
func (h *Handler) ListGalleriesHandler(c *gin.Context) {
	galleries, err := h.service.List(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, galleries)
}

// GetGalleryHandler 画廊详情（含照片清单）
func (h *Handler) GetGalleryHandler(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, detail)
}

// UpdateGalleryHandler 更新画廊
func (h *Handler) UpdateGalleryHandler(c *gin.Context) {
	var req gallery.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.service.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "gallery updated", result)
}

// DeleteGalleryHandler 删除画廊
func (h *Handler) DeleteGalleryHandler(c *gin.Context) {
	report, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "gallery deleted", report)
}

// reorderRequest 批量排序请求
type reorderRequest struct {
	Galleries []sortorder.Entry `json:"galleries" binding:"required"`
}

// ReorderGalleriesHandler 批量更新画廊排序号，部分成功也返回 200
func (h *Handler) ReorderGalleriesHandler(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.service.Reorder(c.Request.Context(), req.Galleries)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "sort orders updated", result)
}
