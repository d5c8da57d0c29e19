// Package storage persists uploaded receipt files on local disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
)

// MaxReceiptSize caps uploaded receipts at 5 MB
const MaxReceiptSize = 5 * 1024 * 1024

// ErrInvalidReceipt marks uploads rejected by validation: wrong type,
// empty, oversized, or an unreadable PDF.
var ErrInvalidReceipt = errors.New("invalid receipt")

// allowedExtensions are the accepted receipt file types
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

// ReceiptStorage implements port.ReceiptStore on the local filesystem.
// Files are served under urlPrefix by the HTTP layer.
type ReceiptStorage struct {
	baseDir   string
	urlPrefix string
	logger    *zap.Logger
}

// NewReceiptStorage creates receipt storage rooted at baseDir
func NewReceiptStorage(baseDir, urlPrefix string, logger *zap.Logger) (*ReceiptStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create receipt directory: %w", err)
	}

	return &ReceiptStorage{
		baseDir:   baseDir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		logger:    logger,
	}, nil
}

// Save validates and stores one receipt, returning its serving URL.
// PDF receipts are opened and probed so a corrupt upload is rejected at
// submission time rather than discovered during review.
func (s *ReceiptStorage) Save(ctx context.Context, originalName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if len(data) == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrInvalidReceipt)
	}
	if len(data) > MaxReceiptSize {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrInvalidReceipt, MaxReceiptSize)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: file type %q not allowed", ErrInvalidReceipt, ext)
	}

	if ext == ".pdf" {
		if err := probePDF(data); err != nil {
			return "", fmt.Errorf("%w: unreadable PDF: %v", ErrInvalidReceipt, err)
		}
	}

	filename := fmt.Sprintf("receipt-%s%s", uuid.NewString(), ext)
	path := filepath.Join(s.baseDir, filename)

	if err := os.WriteFile(path, data, 0644); err != nil {
		s.logger.Error("Failed to write receipt file",
			zap.String("path", path),
			zap.Error(err))
		return "", fmt.Errorf("write receipt: %w", err)
	}

	s.logger.Info("Receipt stored",
		zap.String("file", filename),
		zap.Int("size", len(data)))

	return s.urlPrefix + "/" + filename, nil
}

// BaseDir returns the directory receipts are written to
func (s *ReceiptStorage) BaseDir() string {
	return s.baseDir
}

// probePDF opens the document and requires at least one page
func probePDF(data []byte) error {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return fmt.Errorf("document has no pages")
	}
	return nil
}

// Verify interface compliance
var _ port.ReceiptStore = (*ReceiptStorage)(nil)
