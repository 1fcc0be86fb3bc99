package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"invoicing-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ArtifactError wraps a storage failure for a rendered artifact.
type ArtifactError struct {
	Msg string
	Err error
}

func (e *ArtifactError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdf storage: %s: %v", e.Msg, e.Err)
	}
	return "pdf storage: " + e.Msg
}

func (e *ArtifactError) Unwrap() error { return e.Err }

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9\-_]`)

// SafeFilename reduces a base name (typically the invoice number) to
// filesystem-safe characters and appends the pdf extension.
func SafeFilename(base string) string {
	return unsafeFilename.ReplaceAllString(base, "_") + ".pdf"
}

// Storage keeps rendered PDF artifacts on the local filesystem with a
// metadata row per artifact. Each artifact lives under a uuid directory
// so replacing an invoice's PDF never overwrites the previous bytes.
type Storage struct {
	basePath string
	log      *zap.Logger
}

func NewStorage(basePath string, log *zap.Logger) (*Storage, error) {
	if basePath == "" {
		basePath = "storage/pdf"
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(basePath, 0o775); err != nil {
		return nil, &ArtifactError{Msg: "create base directory", Err: err}
	}
	return &Storage{basePath: basePath, log: log}, nil
}

// Store writes the bytes to disk and records a PdfFile row in tx. On a
// write failure nothing is recorded; on a record failure the orphan file
// is removed again.
func (s *Storage) Store(tx *gorm.DB, data []byte, filename string) (*models.PdfFile, error) {
	dir := filepath.Join(s.basePath, uuid.NewString())
	if err := os.MkdirAll(dir, 0o775); err != nil {
		return nil, &ArtifactError{Msg: "create artifact directory", Err: err}
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, &ArtifactError{Msg: "write artifact", Err: err}
	}

	file := models.PdfFile{
		FileName:    filename,
		DiskPath:    path,
		ContentType: "application/pdf",
		Size:        int64(len(data)),
	}
	if err := tx.Create(&file).Error; err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			s.log.Warn("could not remove orphan artifact", zap.String("path", path), zap.Error(rmErr))
		}
		return nil, &ArtifactError{Msg: "record artifact", Err: err}
	}
	return &file, nil
}

// Delete removes an artifact's bytes and metadata. Used as best-effort
// cleanup when a new export replaces an old PDF; callers log failures
// instead of escalating them.
func (s *Storage) Delete(tx *gorm.DB, file *models.PdfFile) error {
	if file == nil {
		return nil
	}
	if err := tx.Delete(&models.PdfFile{}, file.ID).Error; err != nil {
		return &ArtifactError{Msg: "delete artifact record", Err: err}
	}
	dir := filepath.Dir(file.DiskPath)
	// Only prune directories we own.
	if strings.HasPrefix(dir, s.basePath) {
		if err := os.RemoveAll(dir); err != nil {
			return &ArtifactError{Msg: "delete artifact file", Err: err}
		}
	}
	return nil
}

// Read returns the stored bytes of an artifact for download.
func (s *Storage) Read(file *models.PdfFile) ([]byte, error) {
	if file == nil {
		return nil, &ArtifactError{Msg: "no artifact attached"}
	}
	data, err := os.ReadFile(file.DiskPath)
	if err != nil {
		return nil, &ArtifactError{Msg: "read artifact", Err: err}
	}
	return data, nil
}
