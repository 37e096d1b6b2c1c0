package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var (
	globalConfig Config
	once         sync.Once
)

// Config 扁平化配置结构体
type Config struct {
	// 服务器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerDomain       string        `mapstructure:"server_domain"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`

	// 数据库配置
	DBType     string `mapstructure:"db_type"`
	DBHost     string `mapstructure:"db_host"`
	DBPort     int    `mapstructure:"db_port"`
	DBUsername string `mapstructure:"db_username"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`
	DBFilePath string `mapstructure:"db_file_path"`

	// 对象存储配置
	MinioEndpoint        string `mapstructure:"minio_endpoint"`
	MinioAccessKeyID     string `mapstructure:"minio_access_key_id"`
	MinioSecretAccessKey string `mapstructure:"minio_secret_access_key"`
	MinioBucket          string `mapstructure:"minio_bucket"`
	MinioUseSSL          bool   `mapstructure:"minio_use_ssl"`
	// 图片公网地址前缀，默认由 endpoint/bucket 推导
	MinioPublicBaseURL string        `mapstructure:"minio_public_base_url"`
	PresignExpiry      time.Duration `mapstructure:"presign_expiry"`

	// 缓存提供者配置
	CacheType          string `mapstructure:"cache_type"`
	CacheRedisAddr     string `mapstructure:"cache_redis_addr"`
	CacheRedisPassword string `mapstructure:"cache_redis_password"`
	CacheRedisDB       int    `mapstructure:"cache_redis_db"`

	// 地理编码配置
	GeocodeEndpoint  string        `mapstructure:"geocode_endpoint"`
	GeocodeUserAgent string        `mapstructure:"geocode_user_agent"`
	GeocodeTimeout   time.Duration `mapstructure:"geocode_timeout"`

	// 上传配置
	UploadMaxPhotoMB      int `mapstructure:"upload_max_photo_mb"`
	UploadMaxBatchTotalMB int `mapstructure:"upload_max_batch_total_mb"`

	// 缩略图配置
	ThumbnailMaxEdge int `mapstructure:"thumbnail_max_edge"`
	ThumbnailQuality int `mapstructure:"thumbnail_quality"`
}

// InitConfig Initialize configuration
func InitConfig() {
	once.Do(func() {
		loadConfig()
	})
}

func Get() *Config {
	return &globalConfig
}

// loadConfig Core configuration loading
func loadConfig() {
	setDefaults()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "Info: .env file not found, using defaults and environment variables")
	} else {
		fmt.Fprintln(os.Stderr, "Info: Loaded configuration from .env file")
	}

	viper.AutomaticEnv()
	for _, key := range viper.AllKeys() {
		viper.BindEnv(key)
	}

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := viper.Unmarshal(&globalConfig, decodeHook); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: Unable to unmarshal config, %v\n", err)
		os.Exit(1)
	}
}

// setDefaults 设置默认值
func setDefaults() {
	// 服务器配置默认值
	viper.SetDefault("server_host", "127.0.0.1")
	viper.SetDefault("server_port", 8080)
	viper.SetDefault("server_domain", "")
	viper.SetDefault("server_read_timeout", "15s")
	viper.SetDefault("server_write_timeout", "60s")
	viper.SetDefault("server_idle_timeout", "120s")

	// 数据库配置默认值
	viper.SetDefault("db_type", "sqlite")
	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", 5432)
	viper.SetDefault("db_username", "postgres")
	viper.SetDefault("db_password", "")
	viper.SetDefault("db_name", "galleries")
	viper.SetDefault("db_file_path", "")

	// 对象存储配置默认值
	viper.SetDefault("minio_endpoint", "localhost:9000")
	viper.SetDefault("minio_access_key_id", "")
	viper.SetDefault("minio_secret_access_key", "")
	viper.SetDefault("minio_bucket", "haophotography")
	viper.SetDefault("minio_use_ssl", false)
	viper.SetDefault("minio_public_base_url", "")
	viper.SetDefault("presign_expiry", "1h")

	// 缓存提供者配置默认值
	viper.SetDefault("cache_type", "memory")
	viper.SetDefault("cache_redis_addr", "localhost:6379")
	viper.SetDefault("cache_redis_password", "")
	viper.SetDefault("cache_redis_db", 0)

	// 地理编码配置默认值
	viper.SetDefault("geocode_endpoint", "https://nominatim.openstreetmap.org/search")
	viper.SetDefault("geocode_user_agent", "hao-photography/1.0 (contact@haophotography.com)")
	viper.SetDefault("geocode_timeout", "10s")

	// 上传配置默认值
	viper.SetDefault("upload_max_photo_mb", 50)
	viper.SetDefault("upload_max_batch_total_mb", 100)

	// 缩略图配置默认值
	viper.SetDefault("thumbnail_max_edge", 2000)
	viper.SetDefault("thumbnail_quality", 30)
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// BaseURL 返回服务基础 URL
func (c *Config) BaseURL() string {
	if c.ServerDomain != "" {
		return c.ServerDomain
	}
	host := c.ServerHost
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.ServerPort)
}

// PublicStorageBaseURL 返回对象公网地址前缀
func (c *Config) PublicStorageBaseURL() string {
	if c.MinioPublicBaseURL != "" {
		return c.MinioPublicBaseURL
	}
	scheme := "http"
	if c.MinioUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, c.MinioEndpoint, c.MinioBucket)
}
