package subscriptions

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/haophotography/gallery-backend/api/common"
	"github.com/haophotography/gallery-backend/internal/subscription"
)

// Handler 邮件订阅接口处理器
type Handler struct {
	service *subscription.Service
}

// NewHandler 创建订阅处理器
func NewHandler(service *subscription.Service) *Handler {
	return &Handler{service: service}
}

type subscribeRequest struct {
	Email string `json:"email"`
}

// SubscribeHandler 订阅邮件列表，新订阅返回 201，重复订阅返回 200
func (h *Handler) SubscribeHandler(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.service.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	if result.Created {
		common.RespondCreated(c, result.Message, result)
		return
	}
	common.RespondSuccessMessage(c, result.Message, result)
}
