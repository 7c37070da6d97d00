package models

import (
	"time"

	"github.com/google/uuid"
)

// SOA upload statuses
const (
	SOAStatusUploaded = "UPLOADED"
)

// SOAUpload records a statement-of-account file attached to an SME profile
type SOAUpload struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SMEID     uuid.UUID `json:"sme_id" db:"sme_id"`
	FileName  string    `json:"file_name" db:"file_name"`
	FilePath  string    `json:"file_path" db:"file_path"`
	FileType  string    `json:"file_type" db:"file_type"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// soaFileTypes maps accepted upload MIME types to stored file types
var soaFileTypes = map[string]string{
	"text/csv":        "csv",
	"application/pdf": "pdf",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": "xlsx",
}

// SOAFileType returns the stored file type for an upload MIME type, and false
// when the type is not accepted.
func SOAFileType(mimeType string) (string, bool) {
	t, ok := soaFileTypes[mimeType]
	return t, ok
}
