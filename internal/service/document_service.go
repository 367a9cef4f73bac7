package service

import (
	"context"
	"encoding/base64"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-osa/care-desk-api/internal/dto"
	"github.com/campus-osa/care-desk-api/internal/models"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
)

type documentStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type downloadSigner interface {
	Generate(caseID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (caseID, relPath string, expiresAt time.Time, err error)
}

// DocumentService stores case attachments (signature images, supporting
// documents) and issues signed download tokens so stored paths are never
// directly reachable.
type DocumentService struct {
	store    documentStore
	signer   downloadSigner
	validate *validator.Validate
	logger   *zap.Logger
}

// NewDocumentService constructs the service.
func NewDocumentService(store documentStore, signer downloadSigner, validate *validator.Validate, logger *zap.Logger) *DocumentService {
	return &DocumentService{store: store, signer: signer, validate: validate, logger: logger}
}

// Upload decodes and persists one attachment under its case directory and
// returns the stored URI plus a signed download token.
func (s *DocumentService) Upload(ctx context.Context, actor *models.JWTClaims, req dto.UploadDocumentRequest) (*dto.DocumentInfo, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	filename := sanitizeFilename(req.Filename)
	if filename == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "filename must not resolve outside the case directory")
	}

	data, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "content must be base64 encoded")
	}

	relPath := path.Join(req.CaseID, filename)
	if _, err := s.store.Save(relPath, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreWrite.Code, appErrors.ErrStoreWrite.Status, "failed to store document")
	}

	token, expiresAt, err := s.signer.Generate(req.CaseID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}

	s.logger.Info("document stored",
		zap.String("case_id", req.CaseID),
		zap.String("path", relPath),
		zap.String("user_id", actor.UserID))

	return &dto.DocumentInfo{
		CaseID:    req.CaseID,
		URI:       relPath,
		Token:     token,
		ExpiresAt: expiresAt,
		Size:      len(data),
	}, nil
}

// Open validates a download token and returns the stored file with its
// display name.
func (s *DocumentService) Open(ctx context.Context, token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "document no longer exists")
	}
	return file, path.Base(relPath), nil
}

// sanitizeFilename keeps the base name only; anything that still escapes the
// case directory is rejected.
func sanitizeFilename(name string) string {
	name = path.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ""
	}
	return name
}
