package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo 对象元信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Provider 存储提供者接口 - 依赖倒置的核心抽象
// 定义了存储层的基本操作，所有存储实现必须遵循此接口
type Provider interface {
	// PutWithContext 保存对象到存储
	PutWithContext(ctx context.Context, key string, reader io.Reader, size int64, contentType string, cacheControl string) error

	// GetWithContext 从存储获取对象
	GetWithContext(ctx context.Context, key string) (io.ReadCloser, error)

	// DeleteWithContext 从存储删除对象
	DeleteWithContext(ctx context.Context, key string) error

	// DeleteManyWithContext 批量删除对象，返回成功删除数，
	// 任一对象删除失败时返回错误
	DeleteManyWithContext(ctx context.Context, keys []string) (int, error)

	// CopyWithContext 在存储内复制对象
	CopyWithContext(ctx context.Context, srcKey, dstKey string) error

	// ListPrefix 列举指定前缀下的全部对象键
	ListPrefix(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Exists 检查对象是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// PresignPut 生成对象的预签名上传 URL
	PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error)

	// PublicURL 返回对象的公网访问地址
	PublicURL(key string) string

	// KeyFromURL 从公网地址反推对象键，无法反推时返回空串
	KeyFromURL(url string) string

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}
