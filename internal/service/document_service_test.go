package service

import (
	"context"
	"encoding/base64"
	"io"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-osa/care-desk-api/internal/dto"
	"github.com/campus-osa/care-desk-api/internal/models"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
	"github.com/campus-osa/care-desk-api/pkg/storage"
)

func newDocumentFixture(t *testing.T) *DocumentService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewDocumentService(store, signer, validator.New(), zap.NewNop())
}

func TestDocumentServiceUploadAndDownload(t *testing.T) {
	svc := newDocumentFixture(t)
	actor := &models.JWTClaims{UserID: "staff-1", Role: models.RoleCareStaff}

	info, err := svc.Upload(context.Background(), actor, dto.UploadDocumentRequest{
		CaseID:   "case-1",
		Filename: "signature.png",
		Content:  base64.StdEncoding.EncodeToString([]byte("png-bytes")),
	})
	require.NoError(t, err)
	assert.Equal(t, "case-1/signature.png", info.URI)
	assert.Equal(t, len("png-bytes"), info.Size)
	require.NotEmpty(t, info.Token)

	file, name, err := svc.Open(context.Background(), info.Token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, "signature.png", name)

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestDocumentServiceRejectsPathEscape(t *testing.T) {
	svc := newDocumentFixture(t)
	actor := &models.JWTClaims{UserID: "staff-1", Role: models.RoleCareStaff}

	info, err := svc.Upload(context.Background(), actor, dto.UploadDocumentRequest{
		CaseID:   "case-1",
		Filename: "../../etc/passwd",
		Content:  base64.StdEncoding.EncodeToString([]byte("x")),
	})
	require.NoError(t, err)
	// path.Base keeps the leaf only, so the file stays inside the case dir.
	assert.Equal(t, "case-1/passwd", info.URI)
}

func TestDocumentServiceRejectsBadBase64(t *testing.T) {
	svc := newDocumentFixture(t)
	actor := &models.JWTClaims{UserID: "staff-1", Role: models.RoleCareStaff}

	_, err := svc.Upload(context.Background(), actor, dto.UploadDocumentRequest{
		CaseID:   "case-1",
		Filename: "notes.txt",
		Content:  "not base64!!",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestDocumentServiceRejectsForgedToken(t *testing.T) {
	svc := newDocumentFixture(t)

	_, _, err := svc.Open(context.Background(), "case-1.12345.abc.deadbeef")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}
