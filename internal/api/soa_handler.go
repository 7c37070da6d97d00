package api

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/partnex-scoring/internal/auth"
	"github.com/ajharbinger/partnex-scoring/internal/services"
)

// SOAHandler accepts statement-of-account uploads
type SOAHandler struct {
	soaService services.SOAService
}

// NewSOAHandler creates a new SOA handler
func NewSOAHandler(soaService services.SOAService) *SOAHandler {
	return &SOAHandler{soaService: soaService}
}

// Upload stores the multipart "file" field for the caller's SME
func (h *SOAHandler) Upload(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var file *services.UploadFile
	header, err := c.FormFile("file")
	switch {
	case err == nil:
		f, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read uploaded file"})
			return
		}
		defer f.Close()

		file = &services.UploadFile{
			Name:     header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Size:     header.Size,
			Content:  f,
		}
	case isBodyTooLarge(err):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	upload, err := h.soaService.Upload(c.Request.Context(), userID, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"upload": upload})
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return stderrors.As(err, &maxErr)
}
