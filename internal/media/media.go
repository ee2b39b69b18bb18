package media

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

// Uploader pushes CMS media files to a Supabase Storage bucket and hands back
// the public URL.
type Uploader struct {
	baseURL string
	bucket  string
	client  *storage.Client
}

// New creates an uploader; returns nil when storage is not configured.
func New(baseURL, key, bucket string) *Uploader {
	if baseURL == "" || key == "" {
		return nil
	}
	return &Uploader{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		client:  storage.NewClient(strings.TrimRight(baseURL, "/")+"/storage/v1", key, nil),
	}
}

// Upload stores one multipart file under a fresh id, keeping the extension.
func (u *Uploader) Upload(fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return "", err
	}

	objectPath := fmt.Sprintf("cms/%s%s", uuid.NewString(), filepath.Ext(fileHeader.Filename))
	contentType := fileHeader.Header.Get("Content-Type")
	if _, err := u.client.UploadFile(u.bucket, objectPath, &buf, storage.FileOptions{
		ContentType: &contentType,
	}); err != nil {
		return "", fmt.Errorf("storage upload failed: %w", err)
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", u.baseURL, u.bucket, objectPath), nil
}
