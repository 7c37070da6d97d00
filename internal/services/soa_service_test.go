package services

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/partnex-scoring/internal/errors"
	"github.com/ajharbinger/partnex-scoring/internal/filestore"
	"github.com/ajharbinger/partnex-scoring/internal/logger"
	"github.com/ajharbinger/partnex-scoring/internal/models"
)

func newTestSOAService(t *testing.T, m *mockRepos, maxBytes int64) (SOAService, *filestore.LocalStore) {
	t.Helper()
	store, err := filestore.NewLocalStore(t.TempDir(), maxBytes)
	require.NoError(t, err)
	return newSOAService(m.Repositories, store, logger.NewNop()), store
}

func csvFile(content string) *UploadFile {
	return &UploadFile{
		Name:     "statement.csv",
		MimeType: "text/csv; charset=utf-8",
		Size:     int64(len(content)),
		Content:  strings.NewReader(content),
	}
}

func TestSOAService_Upload(t *testing.T) {
	m := newMockRepos()
	profile := m.seedProfile()
	svc, _ := newTestSOAService(t, m, 0)

	upload, err := svc.Upload(context.Background(), profile.OwnerUserID, csvFile("date,amount\n"))
	require.NoError(t, err)

	assert.Equal(t, profile.ID, upload.SMEID)
	assert.Equal(t, "statement.csv", upload.FileName)
	assert.Equal(t, "csv", upload.FileType)
	assert.Equal(t, models.SOAStatusUploaded, upload.Status)
	assert.FileExists(t, upload.FilePath)
	assert.Len(t, m.soa.uploads, 1)
}

func TestSOAService_UploadRejections(t *testing.T) {
	m := newMockRepos()
	profile := m.seedProfile()
	svc, _ := newTestSOAService(t, m, 8)

	tests := []struct {
		name     string
		userID   uuid.UUID
		file     *UploadFile
		wantCode string
		wantMsg  string
	}{
		{"no file", profile.OwnerUserID, nil, errors.ErrCodeValidationError, "File is required"},
		{"no profile", uuid.New(), csvFile("a"), errors.ErrCodeNotFound, "Create SME profile first"},
		{"bad type", profile.OwnerUserID, &UploadFile{Name: "x.png", MimeType: "image/png", Content: strings.NewReader("x")}, errors.ErrCodeValidationError, "Unsupported file type"},
		{"too large", profile.OwnerUserID, csvFile("0123456789"), errors.ErrCodeValidationError, "File too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tt.userID, tt.file)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			assert.Equal(t, tt.wantMsg, errors.PublicMessage(err))
		})
	}
	assert.Empty(t, m.soa.uploads)
}

func TestSOAService_UploadRemovesFileWhenRecordFails(t *testing.T) {
	m := newMockRepos()
	profile := m.seedProfile()
	m.soa.createErr = errDBDown
	svc, store := newTestSOAService(t, m, 0)

	_, err := svc.Upload(context.Background(), profile.OwnerUserID, csvFile("date,amount\n"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDatabaseError, errors.CodeOf(err))

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
