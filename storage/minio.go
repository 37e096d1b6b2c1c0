package storage

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/haophotography/gallery-backend/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioStorage struct {
	client        *minio.Client
	bucketName    string
	publicBaseURL string
}

// mustGetSystemCertPool 获取系统证书池
func mustGetSystemCertPool() *x509.CertPool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		log.Printf("Failed to load system cert pool: %v", err)
		return x509.NewCertPool()
	}
	return pool
}

// NewMinioStorage 按配置创建 MinIO 存储提供者
func NewMinioStorage(cfg *config.Config) (Provider, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       time.Minute,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 10 * time.Second,
		DisableCompression:    true,
	}

	// SSL
	if cfg.MinioUseSSL {
		transport.TLSClientConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		if f := os.Getenv("SSL_CERT_FILE"); f != "" {
			rootCAs := mustGetSystemCertPool()
			data, err := os.ReadFile(f)
			if err == nil {
				rootCAs.AppendCertsFromPEM(data)
			}
			transport.TLSClientConfig.RootCAs = rootCAs
		}
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.MinioAccessKeyID, cfg.MinioSecretAccessKey, ""),
		Secure:    cfg.MinioUseSSL,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket '%s' exists: %w", cfg.MinioBucket, err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket '%s': %w", cfg.MinioBucket, err)
		}
		log.Printf("Successfully created bucket: %s", cfg.MinioBucket)
	}

	storage := &minioStorage{
		client:        client,
		bucketName:    cfg.MinioBucket,
		publicBaseURL: strings.TrimRight(cfg.PublicStorageBaseURL(), "/"),
	}

	return storage, nil
}

// PutWithContext 将对象上传到 MinIO
func (s *minioStorage) PutWithContext(ctx context.Context, key string, reader io.Reader, size int64, contentType string, cacheControl string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	opts := minio.PutObjectOptions{ContentType: contentType}
	if cacheControl != "" {
		opts.CacheControl = cacheControl
	}

	_, err := s.client.PutObject(ctx, s.bucketName, key, reader, size, opts)
	if err != nil {
		return fmt.Errorf("failed to upload object '%s' to minio: %w", key, err)
	}

	return nil
}

// GetWithContext 获取对象流
func (s *minioStorage) GetWithContext(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		errResponse := minio.ToErrorResponse(err)
		if errResponse.Code == "NoSuchKey" {
			return nil, fmt.Errorf("object not found in minio: %s", key)
		}
		return nil, fmt.Errorf("failed to get object stream from minio for '%s': %w", key, err)
	}

	return obj, nil
}

// DeleteWithContext 删除单个对象
func (s *minioStorage) DeleteWithContext(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object '%s' from minio: %w", key, err)
	}

	return nil
}

// DeleteManyWithContext 批量删除对象，返回成功删除数。
// 单个对象删除失败不会中断其余删除，但会通过返回错误暴露给调用方。
func (s *minioStorage) DeleteManyWithContext(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objectsCh <- minio.ObjectInfo{Key: key}
	}
	close(objectsCh)

	failed := 0
	var firstErr error
	for rErr := range s.client.RemoveObjects(ctx, s.bucketName, objectsCh, minio.RemoveObjectsOptions{}) {
		if rErr.Err != nil {
			log.Printf("Failed to delete object '%s' from minio: %v", rErr.ObjectName, rErr.Err)
			if firstErr == nil {
				firstErr = rErr.Err
			}
			failed++
		}
	}

	if failed > 0 {
		return len(keys) - failed, fmt.Errorf("failed to delete %d of %d objects: %w", failed, len(keys), firstErr)
	}
	return len(keys), nil
}

// CopyWithContext 在桶内复制对象
func (s *minioStorage) CopyWithContext(ctx context.Context, srcKey, dstKey string) error {
	src := minio.CopySrcOptions{Bucket: s.bucketName, Object: srcKey}
	dst := minio.CopyDestOptions{Bucket: s.bucketName, Object: dstKey}

	_, err := s.client.CopyObject(ctx, dst, src)
	if err != nil {
		return fmt.Errorf("failed to copy object '%s' to '%s': %w", srcKey, dstKey, err)
	}

	return nil
}

// ListPrefix 列举前缀下的全部对象
func (s *minioStorage) ListPrefix(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo

	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects under prefix '%s': %w", prefix, obj.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	return objects, nil
}

// Exists 检查对象是否存在
func (s *minioStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		errResponse := minio.ToErrorResponse(err)
		if errResponse.Code == "NoSuchKey" || errResponse.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object '%s' in minio: %w", key, err)
	}

	return true, nil
}

// PresignPut 生成预签名上传 URL
func (s *minioStorage) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucketName, key, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign put for object '%s': %w", key, err)
	}

	return u.String(), nil
}

// PublicURL 返回对象的公网访问地址
func (s *minioStorage) PublicURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	return s.publicBaseURL + "/" + strings.TrimLeft(escaped, "/")
}

// KeyFromURL 从公网地址反推对象键
func (s *minioStorage) KeyFromURL(rawURL string) string {
	if !strings.HasPrefix(rawURL, s.publicBaseURL+"/") {
		return ""
	}
	escaped := strings.TrimPrefix(rawURL, s.publicBaseURL+"/")
	key, err := url.PathUnescape(escaped)
	if err != nil {
		return escaped
	}
	return key
}

// Health 检查存储健康状态
func (s *minioStorage) Health(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("minio health check failed: %w", err)
	}
	return nil
}

// Name 返回存储名称
func (s *minioStorage) Name() string {
	return "minio"
}
