package galleries

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/haophotography/gallery-backend/api/common"
	"github.com/haophotography/gallery-backend/internal/photo"
	"github.com/haophotography/gallery-backend/internal/sortorder"
)

// PhotoHandler 画廊照片接口处理器
type PhotoHandler struct {
	service *photo.Service
}

// NewPhotoHandler 创建照片处理器
func NewPhotoHandler(service *photo.Service) *PhotoHandler {
	return &PhotoHandler{service: service}
}

// UploadPhotosHandler 批量上传照片（base64 内嵌）
func (h *PhotoHandler) UploadPhotosHandler(c *gin.Context) {
	var req photo.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.service.Upload(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "photos uploaded", result)
}

// DeletePhotoHandler 删除单张照片，选择器在请求体里
func (h *PhotoHandler) DeletePhotoHandler(c *gin.Context) {
	var req photo.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	report, err := h.service.Delete(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "photo deleted", report)
}

// photoReorderRequest 照片批量排序请求
type photoReorderRequest struct {
	Photos []sortorder.Entry `json:"photos" binding:"required"`
}

// ReorderPhotosHandler 批量更新照片排序号，部分成功也返回 200
func (h *PhotoHandler) ReorderPhotosHandler(c *gin.Context) {
	var req photoReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.service.Reorder(c.Request.Context(), c.Param("id"), req.Photos)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "sort orders updated", result)
}

// UploadURLsHandler 为直传生成预签名 PUT URL
func (h *PhotoHandler) UploadURLsHandler(c *gin.Context) {
	var req photo.UploadURLsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	entries, err := h.service.UploadURLs(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, gin.H{"uploads": entries})
}

// RegisterRecordsHandler 直传完成后的照片记录注册
func (h *PhotoHandler) RegisterRecordsHandler(c *gin.Context) {
	var req photo.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.service.RegisterRecords(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondCreated(c, "photo records registered", result)
}
