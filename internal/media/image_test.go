package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// pngBytes はテスト用のPNG画像データを生成する。
func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// ValidateImageがPNGのフォーマット名を返すことを検証
func TestValidateImage_PNG(t *testing.T) {
	format, err := ValidateImage(pngBytes(t, 10, 10))
	if err != nil {
		t.Fatalf("ValidateImage returned error: %v", err)
	}
	if format != "png" {
		t.Errorf("format = %q, want %q", format, "png")
	}
}

// ValidateImageが画像でないデータを拒否することを検証
func TestValidateImage_InvalidData(t *testing.T) {
	if _, err := ValidateImage([]byte("this is not an image")); err == nil {
		t.Error("expected error for non-image data")
	}
}

// ValidateImageが空のデータを拒否することを検証
func TestValidateImage_Empty(t *testing.T) {
	if _, err := ValidateImage(nil); err == nil {
		t.Error("expected error for empty data")
	}
}

// ComputeBlurHashがハッシュ文字列を生成することを検証
func TestComputeBlurHash(t *testing.T) {
	hash, err := ComputeBlurHash(pngBytes(t, 32, 32))
	if err != nil {
		t.Fatalf("ComputeBlurHash returned error: %v", err)
	}
	if hash == "" {
		t.Error("expected non-empty blurhash")
	}
}

// 縮小対象の大きな画像でもComputeBlurHashが動作することを検証
func TestComputeBlurHash_LargeImage(t *testing.T) {
	hash, err := ComputeBlurHash(pngBytes(t, 200, 100))
	if err != nil {
		t.Fatalf("ComputeBlurHash returned error: %v", err)
	}
	if hash == "" {
		t.Error("expected non-empty blurhash")
	}
}

// resizeForBlurHashがアスペクト比を維持して縮小することを検証
func TestResizeForBlurHash(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))

	resized := resizeForBlurHash(img)

	bounds := resized.Bounds()
	if bounds.Dx() != blurHashSize {
		t.Errorf("width = %d, want %d", bounds.Dx(), blurHashSize)
	}
	if bounds.Dy() != blurHashSize/2 {
		t.Errorf("height = %d, want %d", bounds.Dy(), blurHashSize/2)
	}
}

// 小さな画像はそのまま返されることを検証
func TestResizeForBlurHash_SmallImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))

	resized := resizeForBlurHash(img)

	if resized != image.Image(img) {
		t.Error("small image should be returned unchanged")
	}
}

// ProcessorがValidateImageとComputeBlurHashへ委譲することを検証
func TestProcessor(t *testing.T) {
	p := Processor{}
	data := pngBytes(t, 16, 16)

	format, err := p.Validate(data)
	if err != nil || format != "png" {
		t.Errorf("Validate = (%q, %v), want (png, nil)", format, err)
	}

	hash, err := p.BlurHash(data)
	if err != nil || hash == "" {
		t.Errorf("BlurHash = (%q, %v), want non-empty hash", hash, err)
	}
}
