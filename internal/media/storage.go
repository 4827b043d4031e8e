package media

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Storage は商品画像のファイルシステム保存を管理する。
// ファイル名はUUIDで生成し、元のファイル名に依存しない。
type Storage struct {
	baseDir string
}

// NewStorage はStorageを生成し、保存先ディレクトリを作成する。
func NewStorage(baseDir string) (*Storage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &Storage{baseDir: baseDir}, nil
}

// Save は画像データを保存し、保存ファイル名を返す。
// formatはValidateImageが返すフォーマット名（"jpeg", "png", "gif", "webp"）。
func (s *Storage) Save(data []byte, format string) (string, error) {
	ext := extensionForFormat(format)
	if ext == "" {
		return "", fmt.Errorf("unsupported image format: %s", format)
	}

	filename := uuid.New().String() + ext
	path := filepath.Join(s.baseDir, filename)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return filename, nil
}

// Remove は保存済みの画像ファイルを削除する。
// ファイルが存在しない場合はエラーなしで返る。
func (s *Storage) Remove(filename string) error {
	if filename == "" {
		return nil
	}
	path := filepath.Join(s.baseDir, filepath.Base(filename))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image file: %w", err)
	}
	return nil
}

// Path は保存ファイル名からフルパスを返す。
// パストラバーサルを防ぐためファイル名部分のみを使用する。
func (s *Storage) Path(filename string) string {
	return filepath.Join(s.baseDir, filepath.Base(filename))
}

// extensionForFormat はフォーマット名に対応する拡張子を返す。
// 未知のフォーマットには空文字列を返す。
func extensionForFormat(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	case "webp":
		return ".webp"
	default:
		return ""
	}
}
