package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/haophotography/gallery-backend/cache"
	"golang.org/x/time/rate"
)

// Coordinates 地理坐标
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// cacheEntry 缓存条目，Found=false 表示已知的查询失败，避免重复请求
type cacheEntry struct {
	Found     bool    `json:"found"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

const cacheTTL = 30 * 24 * time.Hour

// Client Nominatim 地理编码客户端。
// 公共服务要求单客户端不超过 1 请求/秒，限流器全局生效。
type Client struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      cache.Provider
}

// NewClient 创建地理编码客户端
func NewClient(endpoint, userAgent string, timeout time.Duration, cacheProvider cache.Provider) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		cache:      cacheProvider,
	}
}

// Lookup 查询画廊地名对应的坐标。
// 查询失败或无结果时返回 (nil, nil)，坐标始终是画廊记录的可选增强。
func (c *Client) Lookup(ctx context.Context, name, country string) (*Coordinates, error) {
	cacheKey := "geocode:" + strings.ToLower(name+","+country)

	if c.cache != nil {
		var entry cacheEntry
		if err := c.cache.Get(ctx, cacheKey, &entry); err == nil {
			if !entry.Found {
				return nil, nil
			}
			return &Coordinates{Latitude: entry.Latitude, Longitude: entry.Longitude}, nil
		}
	}

	coords := c.lookupRemote(ctx, name, country)

	if c.cache != nil {
		entry := cacheEntry{}
		if coords != nil {
			entry = cacheEntry{Found: true, Latitude: coords.Latitude, Longitude: coords.Longitude}
		}
		if err := c.cache.Set(ctx, cacheKey, entry, cacheTTL); err != nil {
			log.Printf("Failed to cache geocode result for '%s': %v", cacheKey, err)
		}
	}

	return coords, nil
}

// lookupRemote 调用 Nominatim，任何失败都降级为无坐标
func (c *Client) lookupRemote(ctx context.Context, name, country string) *Coordinates {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil
	}

	query := url.Values{}
	query.Set("q", fmt.Sprintf("%s, %s", name, country))
	query.Set("format", "json")
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		log.Printf("Failed to build geocode request for '%s, %s': %v", name, country, err)
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Geocode request failed for '%s, %s': %v", name, country, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Geocode request for '%s, %s' returned status %d", name, country, resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		log.Printf("Failed to read geocode response for '%s, %s': %v", name, country, err)
		return nil
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.Unmarshal(body, &results); err != nil || len(results) == 0 {
		return nil
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return nil
	}

	return &Coordinates{Latitude: lat, Longitude: lon}
}
