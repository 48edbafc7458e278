package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campushub-api/internal/service"
	appErrors "github.com/noah-isme/campushub-api/pkg/errors"
	"github.com/noah-isme/campushub-api/pkg/response"
	"github.com/noah-isme/campushub-api/pkg/storage"
)

const (
	// UploadContextKey is the gin context key storing the parsed upload.
	UploadContextKey = "resourceUpload"

	uploadFileField = "file"
	multipartSlack  = 1 << 20
	maxFieldBytes   = 64 << 10
)

// UploadForm is the multipart request after intake: plain fields plus the
// spooled file.
type UploadForm struct {
	Values url.Values
	File   *service.ResourceUpload
}

// UploadIntake streams a multipart body into the spool directory and exposes
// it to the handler as an UploadForm. The spooled file is closed and removed
// when the chain returns, whatever the outcome.
func UploadIntake(spool *storage.LocalStorage, maxFileSize int64, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		var (
			spooled string
			file    *os.File
		)
		defer func() {
			if file != nil {
				_ = file.Close()
			}
			if spooled == "" {
				return
			}
			if err := spool.Delete(spooled); err != nil {
				logger.Warn("failed to remove spooled upload", zap.String("file", spooled), zap.Error(err))
			}
		}()

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFileSize+multipartSlack)
		reader, err := c.Request.MultipartReader()
		if err != nil {
			abortIntake(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid multipart form"))
			return
		}

		values := url.Values{}
		upload := &service.ResourceUpload{}
		for {
			part, err := reader.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				abortIntake(c, intakeError(err, maxFileSize))
				return
			}

			if part.FormName() != uploadFileField || part.FileName() == "" {
				value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
				_ = part.Close()
				if err != nil {
					abortIntake(c, intakeError(err, maxFileSize))
					return
				}
				if len(value) > maxFieldBytes {
					abortIntake(c, appErrors.Validation("Validation failed", appErrors.FieldError{Field: part.FormName(), Message: part.FormName() + " is too long"}))
					return
				}
				values.Add(part.FormName(), string(value))
				continue
			}

			if spooled != "" {
				_ = part.Close()
				abortIntake(c, appErrors.Clone(appErrors.ErrValidation, "Too many files. Only one file allowed."))
				return
			}
			spooled = uuid.NewString() + ".part"
			n, err := spool.SaveStream(spooled, part)
			_ = part.Close()
			if err != nil {
				abortIntake(c, intakeError(err, maxFileSize))
				return
			}
			upload.FileName = strings.TrimSpace(part.FileName())
			upload.ContentType = part.Header.Get("Content-Type")
			upload.Size = n
		}

		if spooled == "" {
			abortIntake(c, appErrors.Clone(appErrors.ErrValidation, "No file uploaded"))
			return
		}
		file, err = spool.Open(spooled)
		if err != nil {
			abortIntake(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to read uploaded file"))
			return
		}
		upload.Content = file

		c.Set(UploadContextKey, &UploadForm{Values: values, File: upload})
		c.Next()
	}
}

// UploadFromContext returns the form stored by UploadIntake.
func UploadFromContext(c *gin.Context) (*UploadForm, bool) {
	value, exists := c.Get(UploadContextKey)
	if !exists {
		return nil, false
	}
	form, ok := value.(*UploadForm)
	return form, ok && form != nil
}

func intakeError(err error, maxFileSize int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return service.FileTooLarge(maxFileSize)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid multipart form")
}

func abortIntake(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}
