package storage

import (
	"crypto/md5"
	"encoding/hex"
	"path"
	"strings"
)

// RootPrefix 所有画廊对象的根前缀
const RootPrefix = "galleries/"

// ThumbnailFolder 画廊前缀下的缩略图子目录名
const ThumbnailFolder = "thumbnails/"

// 上传允许的图片扩展名
var uploadExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
	"avif": true,
}

// 扫描识别的图片扩展名，在上传集合之上额外容忍历史遗留格式
var scanExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
	"avif": true,
	"tiff": true,
	"bmp":  true,
}

// GalleryPrefix 画廊对象前缀: galleries/<continent>/<country>/<name>/
func GalleryPrefix(continent, country, name string) string {
	return RootPrefix + continent + "/" + country + "/" + name + "/"
}

// ThumbnailPrefix 画廊缩略图前缀
func ThumbnailPrefix(galleryPrefix string) string {
	return galleryPrefix + ThumbnailFolder
}

// ThumbnailKey 画廊内某个文件对应的缩略图键，文件名保持不变
func ThumbnailKey(galleryPrefix, filename string) string {
	return galleryPrefix + ThumbnailFolder + filename
}

// IsThumbnailKey 对象键是否位于缩略图子目录内
func IsThumbnailKey(key string) bool {
	return strings.Contains(key, "/"+ThumbnailFolder)
}

// SplitPrefix 从对象键中取出画廊前缀（根前缀后的前三段路径）。
// 键不在根前缀下或层级不足时返回空串。
func SplitPrefix(key string) string {
	if !strings.HasPrefix(key, RootPrefix) {
		return ""
	}
	rest := strings.TrimPrefix(key, RootPrefix)
	parts := strings.SplitN(rest, "/", 4)
	if len(parts) < 4 {
		return ""
	}
	return RootPrefix + parts[0] + "/" + parts[1] + "/" + parts[2] + "/"
}

// PrefixParts 将画廊前缀拆成 continent/country/name 三段
func PrefixParts(galleryPrefix string) (continent, country, name string, ok bool) {
	if !strings.HasPrefix(galleryPrefix, RootPrefix) {
		return "", "", "", false
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(galleryPrefix, RootPrefix), "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// BaseName 对象键的文件名部分
func BaseName(key string) string {
	return path.Base(key)
}

// Ext 文件扩展名，小写且不含点
func Ext(filename string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	return strings.ToLower(ext)
}

// IsUploadExtension 扩展名是否允许上传
func IsUploadExtension(ext string) bool {
	return uploadExtensions[strings.ToLower(ext)]
}

// IsScanExtension 扩展名是否被扫描识别为图片
func IsScanExtension(ext string) bool {
	return scanExtensions[strings.ToLower(ext)]
}

// GalleryIDForPrefix 从画廊前缀确定性地推导画廊ID。
// 同一前缀永远得到同一ID，对账扫描因此是幂等的。
func GalleryIDForPrefix(galleryPrefix string) string {
	sum := md5.Sum([]byte(galleryPrefix))
	return "gallery-" + hex.EncodeToString(sum[:])[:8]
}

// RewritePrefix 把对象键从旧前缀改写到新前缀。
// 键不在旧前缀下时原样返回。
func RewritePrefix(key, oldPrefix, newPrefix string) string {
	if !strings.HasPrefix(key, oldPrefix) {
		return key
	}
	return newPrefix + strings.TrimPrefix(key, oldPrefix)
}
