package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type UploadResult struct {
	ObjectName string `json:"object_name"`
	Size       int64  `json:"size"`
}

// BlobStore holds generated document files. Template bytes live in the
// database; only generation output goes through here.
type BlobStore interface {
	Upload(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error)
	Read(ctx context.Context, objectName string) (io.ReadCloser, error)
	Delete(ctx context.Context, objectName string) error
	Close() error
}

// DocumentObjectName builds the object key for one generated document.
// The firm prefix keeps bucket listings tenant-scoped.
func DocumentObjectName(firmID, documentID, filename string) string {
	return fmt.Sprintf("firms/%s/documents/%s/%d_%s", firmID, documentID, time.Now().Unix(), filename)
}
