package core

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// HealthHandler 健康检查处理器
type HealthHandler struct {
	deps *ServerDependencies
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(deps *ServerDependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Handle 汇总数据库与对象存储的健康状态
func (h *HealthHandler) Handle(c *gin.Context) {
	checks := gin.H{
		"database": h.checkDatabase(),
		"storage":  h.checkStorage(c),
		"cache":    h.checkCache(c),
	}

	httpStatus := http.StatusOK
	status := "ok"
	for _, result := range checks {
		if result != "ok" {
			httpStatus = http.StatusServiceUnavailable
			status = "degraded"
			break
		}
	}

	c.JSON(httpStatus, gin.H{
		"status": status,
		"uptime": time.Since(startTime).Round(time.Second).String(),
		"checks": checks,
	})
}

func (h *HealthHandler) checkDatabase() string {
	if h.deps.DB == nil {
		return "not configured"
	}
	sqlDB, err := h.deps.DB.DB()
	if err != nil {
		return err.Error()
	}
	if err := sqlDB.Ping(); err != nil {
		return err.Error()
	}
	return "ok"
}

func (h *HealthHandler) checkStorage(c *gin.Context) string {
	if h.deps.Storage == nil {
		return "not configured"
	}
	if err := h.deps.Storage.Health(c.Request.Context()); err != nil {
		return err.Error()
	}
	return "ok"
}

func (h *HealthHandler) checkCache(c *gin.Context) string {
	if h.deps.Cache == nil {
		return "not configured"
	}
	if _, err := h.deps.Cache.Exists(c.Request.Context(), "health:probe"); err != nil {
		return err.Error()
	}
	return "ok"
}
