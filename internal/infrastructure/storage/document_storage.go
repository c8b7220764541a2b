package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const (
	certificateDir = "certificate_organisations"
	pdfContentType = "application/pdf"
)

// ErrInvalidDocumentPath is returned for names that would escape the media root
var ErrInvalidDocumentPath = errors.New("invalid document path")

var certificateIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ObjectMirror receives a copy of every stored document
type ObjectMirror interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// DocumentStorage writes certificate PDFs below the media root:
//
//	{root}/certificate_organisations/{project_name_lowercased_underscored}/{certificateID}.pdf
type DocumentStorage struct {
	root   string
	mirror ObjectMirror
	logger *zap.Logger
}

// NewDocumentStorage creates storage rooted at root. mirror may be nil.
func NewDocumentStorage(root string, mirror ObjectMirror, logger *zap.Logger) (*DocumentStorage, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("media root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentStorage{root: abs, mirror: mirror, logger: logger}, nil
}

// ProjectFolder is the directory name used for a project's certificates
func ProjectFolder(projectName string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(projectName)), " ", "_")
}

// CertificateKey is the slash-separated key of a certificate, relative to the
// media root. The S3 mirror uses the same key.
func CertificateKey(projectName, certificateID string) (string, error) {
	folder := ProjectFolder(projectName)
	if folder == "" || folder == "." || folder == ".." || strings.ContainsAny(folder, `/\`) {
		return "", ErrInvalidDocumentPath
	}
	if !certificateIDPattern.MatchString(certificateID) || strings.Trim(certificateID, ".") == "" {
		return "", ErrInvalidDocumentPath
	}
	return path.Join(certificateDir, folder, certificateID+".pdf"), nil
}

// Path returns the absolute file path of a certificate
func (s *DocumentStorage) Path(projectName, certificateID string) (string, error) {
	key, err := CertificateKey(projectName, certificateID)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", ErrInvalidDocumentPath
	}
	return full, nil
}

// Save writes pdf, creating directories on demand, and returns the file path
func (s *DocumentStorage) Save(ctx context.Context, projectName, certificateID string, pdf []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := s.Path(projectName, certificateID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create certificate directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(pdf); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write certificate: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close certificate: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("move certificate into place: %w", err)
	}

	if s.mirror != nil {
		key, _ := CertificateKey(projectName, certificateID)
		if err := s.mirror.Upload(ctx, key, pdf, pdfContentType); err != nil {
			return "", fmt.Errorf("mirror certificate: %w", err)
		}
	}

	s.logger.Info("Certificate stored",
		zap.String("certificate_id", certificateID),
		zap.String("path", full),
		zap.Int("bytes", len(pdf)),
	)
	return full, nil
}

// Open reads a stored certificate
func (s *DocumentStorage) Open(projectName, certificateID string) ([]byte, error) {
	full, err := s.Path(projectName, certificateID)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}
