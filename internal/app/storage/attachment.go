package storage

import (
	"path/filepath"
	"strings"
	"time"

	"livesync/internal/app/model"
	"livesync/internal/pkg/errs"
)

const (
	// MaxAttachmentSizeMB is the maximum allowed file size in megabytes.
	MaxAttachmentSizeMB = 20

	// MaxAttachmentSize is the maximum allowed file size in bytes.
	MaxAttachmentSize = MaxAttachmentSizeMB * 1024 * 1024

	// DownloadURLDuration is how long a presigned download link stays valid.
	DownloadURLDuration = 15 * time.Minute
)

// ExtToMIME maps the allowed file extensions to their MIME types.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".zip":  "application/zip",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Attachment describes a file about to be uploaded.
type Attachment struct {
	Name     string
	MimeType string
	Type     model.MessageType
	Size     int64
}

// ValidateFileSize checks if the provided file size is within acceptable limits.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxAttachmentSize {
		return errs.NewError(errs.ErrFileSizeTooLarge, MaxAttachmentSizeMB)
	}

	return nil
}

// Classify resolves the MIME type and message type of fileName from its extension.
func Classify(fileName string) (string, model.MessageType, *errs.CustomError) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if len(ext) < 2 {
		return "", "", errs.NewError(errs.ErrAttachmentTypeInvalid)
	}

	mime, ok := ExtToMIME[ext]
	if !ok {
		return "", "", errs.NewError(errs.ErrAttachmentTypeInvalid)
	}

	switch {
	case strings.HasPrefix(mime, "image/"):
		return mime, model.MessageImage, nil
	case strings.HasPrefix(mime, "video/"):
		return mime, model.MessageVideo, nil
	default:
		return mime, model.MessageFile, nil
	}
}

// NewAttachment validates a file and describes it for upload.
func NewAttachment(fileName string, size int64) (Attachment, *errs.CustomError) {
	if err := ValidateFileSize(size); err != nil {
		return Attachment{}, err
	}

	mime, kind, err := Classify(fileName)
	if err != nil {
		return Attachment{}, err
	}

	return Attachment{Name: fileName, MimeType: mime, Type: kind, Size: size}, nil
}
