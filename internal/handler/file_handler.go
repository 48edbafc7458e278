package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/campushub-api/pkg/errors"
	"github.com/noah-isme/campushub-api/pkg/response"
	"github.com/noah-isme/campushub-api/pkg/storage"
)

type signedFileOpener interface {
	Open(token string) (*os.File, *storage.ObjectInfo, error)
}

// FileHandler streams objects kept by the local object store.
type FileHandler struct {
	files  signedFileOpener
	logger *zap.Logger
}

// NewFileHandler constructs the handler.
func NewFileHandler(files signedFileOpener, logger *zap.Logger) *FileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileHandler{files: files, logger: logger}
}

// Serve godoc
// @Summary Download a stored file through a signed link
// @Tags Files
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{token} [get]
func (h *FileHandler) Serve(c *gin.Context) {
	file, info, err := h.files.Open(c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTokenExpired):
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "Download link expired"))
		case errors.Is(err, storage.ErrInvalidToken):
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "Invalid download link"))
		case errors.Is(err, storage.ErrObjectNotFound), errors.Is(err, os.ErrNotExist):
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "File not found"))
		default:
			h.logger.Error("failed to open stored file", zap.Error(err))
			response.Error(c, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "Failed to read file"))
		}
		return
	}
	defer file.Close()

	name := info.ID
	if v := info.Metadata["fileName"]; v != "" {
		name = v
	}
	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%s`, strconv.Quote(name)))
	c.DataFromReader(http.StatusOK, info.Size, contentType, file, nil)
}
