package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/wyfcoding/ecommerce/pkg/logger"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds size limit")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInvalidKind     = errors.New("invalid upload kind")
)

// 按嗅探出的 MIME 类型决定扩展名,不信任客户端文件名
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

var allowedKinds = map[string]bool{
	"products": true,
	"avatars":  true,
}

// Service 图片上传服务,文件落盘到本地目录
type Service struct {
	baseDir  string
	maxBytes int64
}

func NewService(baseDir string, maxSizeMB int) *Service {
	return &Service{baseDir: baseDir, maxBytes: int64(maxSizeMB) << 20}
}

// Result 上传结果,URL 为静态文件服务下的相对路径
type Result struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Store 校验并保存上传文件。kind 限定子目录,
// 类型以文件头嗅探结果为准。
func (s *Service) Store(ctx context.Context, kind string, file io.Reader, size int64) (*Result, error) {
	if !allowedKinds[kind] {
		return nil, ErrInvalidKind
	}
	if size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read file header: %w", err)
	}
	head = head[:n]

	ext, ok := allowedTypes[http.DetectContentType(head)]
	if !ok {
		return nil, ErrUnsupportedType
	}

	dir := filepath.Join(s.baseDir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	filename := uuid.NewString() + ext
	path := filepath.Join(dir, filename)
	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, io.MultiReader(bytes.NewReader(head), io.LimitReader(file, s.maxBytes)))
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	logger.Info(ctx, "File uploaded", "kind", kind, "filename", filename, "bytes", written)
	return &Result{
		URL:      "/uploads/" + kind + "/" + filename,
		Filename: filename,
	}, nil
}
