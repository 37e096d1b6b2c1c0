package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"time"

	"github.com/h2non/filetype"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// exifTimeLayout EXIF DateTime 字段的时间格式
const exifTimeLayout = "2006:01:02 15:04:05"

// Dimensions 图片尺寸
type Dimensions struct {
	Width  int
	Height int
}

// DecodeDimensions 只解码图片头部获取尺寸
func DecodeDimensions(data []byte) (*Dimensions, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image dimensions: %w", err)
	}
	return &Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// DetectContentType 嗅探图片 MIME 类型，无法识别时返回空串
func DetectContentType(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}

// Thumbnail 生成缩略图，长边不超过 maxEdge，输出 JPEG。
// 原图长边已在限制内时仍会转码，保证缩略图统一为 JPEG。
func Thumbnail(data []byte, maxEdge, quality int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}

	dstWidth, dstHeight := width, height
	if width > maxEdge || height > maxEdge {
		if width >= height {
			dstWidth = maxEdge
			dstHeight = height * maxEdge / width
		} else {
			dstHeight = maxEdge
			dstWidth = width * maxEdge / height
		}
		if dstWidth < 1 {
			dstWidth = 1
		}
		if dstHeight < 1 {
			dstHeight = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}

// ExifTakenAt 从 EXIF 中提取拍摄时间，没有或无法解析时返回 nil
func ExifTakenAt(data []byte) *time.Time {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		tag, err = x.Get(exif.DateTime)
		if err != nil {
			return nil
		}
	}

	raw, err := tag.StringVal()
	if err != nil {
		return nil
	}

	taken, err := time.Parse(exifTimeLayout, raw)
	if err != nil {
		return nil
	}

	return &taken
}
