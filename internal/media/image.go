// Package media は商品画像の検証・保存・プレースホルダー生成を提供する。
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // GIFデコーダーの登録
	_ "image/jpeg" // JPEGデコーダーの登録
	_ "image/png"  // PNGデコーダーの登録

	"github.com/bbrks/go-blurhash"
	_ "golang.org/x/image/webp" // WebPデコーダーの登録
)

// Processor は画像の検証とBlurHash生成をまとめた型。
// サービス層へ渡すための薄いラッパー。
type Processor struct{}

// Validate は画像データのフォーマットを検証し、フォーマット名を返す。
func (Processor) Validate(data []byte) (string, error) {
	return ValidateImage(data)
}

// BlurHash は画像データからBlurHash文字列を生成する。
func (Processor) BlurHash(data []byte) (string, error) {
	return ComputeBlurHash(data)
}

// blurHashSize はBlurHash計算用のサムネイルサイズ。
// BlurHashは低解像度のプレースホルダーなので、小さなサムネイルでほぼ同一の結果が得られる。
// 64pxに縮小することで計算時間を数秒からミリ秒単位に短縮できる。
const blurHashSize = 64

// ValidateImage は画像データのフォーマットを検証し、フォーマット名を返す。
// JPEG, PNG, GIF, WebPをサポートする。
// デコードできないデータにはエラーを返す。
func ValidateImage(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	return format, nil
}

// ComputeBlurHash は画像データからBlurHash文字列を生成する。
// 4x3コンポーネントはサイズ（約20〜30文字）と詳細のバランスが良い。
// 計算前に画像を小さなサムネイルへ縮小する。
func ComputeBlurHash(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	thumbnail := resizeForBlurHash(img)

	hash, err := blurhash.Encode(4, 3, thumbnail)
	if err != nil {
		return "", fmt.Errorf("failed to encode blurhash: %w", err)
	}

	return hash, nil
}

// resizeForBlurHash はBlurHash計算に十分な小さなサムネイルを生成する。
// 最近傍法による単純な縮小で、BlurHash用途には十分。
func resizeForBlurHash(img image.Image) image.Image {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	if srcWidth <= blurHashSize && srcHeight <= blurHashSize {
		return img
	}

	// アスペクト比を維持して縮小する
	var dstWidth, dstHeight int
	if srcWidth > srcHeight {
		dstWidth = blurHashSize
		dstHeight = (srcHeight * blurHashSize) / srcWidth
		if dstHeight < 1 {
			dstHeight = 1
		}
	} else {
		dstHeight = blurHashSize
		dstWidth = (srcWidth * blurHashSize) / srcHeight
		if dstWidth < 1 {
			dstWidth = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))

	xRatio := float64(srcWidth) / float64(dstWidth)
	yRatio := float64(srcHeight) / float64(dstHeight)

	for y := 0; y < dstHeight; y++ {
		for x := 0; x < dstWidth; x++ {
			srcX := int(float64(x) * xRatio)
			srcY := int(float64(y) * yRatio)
			dst.Set(x, y, img.At(bounds.Min.X+srcX, bounds.Min.Y+srcY))
		}
	}

	return dst
}
