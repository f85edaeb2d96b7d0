package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/buildwise/buildwise/backend-go/internal/domain"
	"github.com/buildwise/buildwise/backend-go/internal/typeid"
)

// Service is the persisted-document collaborator. The canvas core only
// uses it for the export-as-document path; the wider document management
// system lives outside this service.
type Service struct {
	db  *gorm.DB
	dir string
}

func NewService(db *gorm.DB, dir string) *Service {
	if err := os.MkdirAll(dir, 0755); err != nil {
		panic(fmt.Sprintf("create document dir %s: %v", dir, err))
	}
	return &Service{db: db, dir: dir}
}

// SaveExport stores rendered canvas bytes as a document record plus a file
// on disk, and returns the new document.
func (s *Service) SaveExport(ctx context.Context, projectID, uploadedBy, canvasName, format string, data []byte) (*domain.Document, error) {
	docID := typeid.NewDocumentID()
	fileName := fmt.Sprintf("canvas-export-%s.%s", docID, format)
	filePath := filepath.Join(s.dir, fileName)

	doc := domain.Document{
		ID:          docID,
		ProjectID:   projectID,
		Title:       fmt.Sprintf("Canvas Export - %s", canvasName),
		Description: fmt.Sprintf("Canvas export from %s", time.Now().Format("2006-01-02 15:04")),
		FileName:    fileName,
		FilePath:    filePath,
		FileSize:    int64(len(data)),
		MimeType:    mimeType(format),
		UploadedBy:  uploadedBy,
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return nil, fmt.Errorf("write export file: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("create document: %w", err)
	}

	return &doc, nil
}

func mimeType(format string) string {
	switch format {
	case "pdf":
		return "application/pdf"
	default:
		return "image/" + format
	}
}
