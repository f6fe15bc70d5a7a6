package filestorage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
)

// Provider хранилище файлов вложений
type Provider interface {
	// UploadMedia size = -1 если размер заранее неизвестен
	UploadMedia(ctx context.Context, companyID, taskID int64, reader io.Reader, size int64, contentType string) (key string, err error)
	GetFile(ctx context.Context, key string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, key string) error
}

var Instance Provider

func NewHandler(s3client *minio.Client, bucketName string) {
	Instance = &impl{
		s3client:   s3client,
		bucketName: bucketName,
	}
}

type impl struct {
	s3client   *minio.Client
	bucketName string
}

// MediaKey ключ объекта: вложения задачи лежат рядом
func MediaKey(companyID, taskID int64, contentType string) string {
	return fmt.Sprintf("%d/tasks/%d/%s%s", companyID, taskID, uuid.NewString(), extension(contentType))
}

func extension(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "video/mp4":
		return ".mp4"
	case "application/pdf":
		return ".pdf"
	}
	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}

func (i impl) UploadMedia(ctx context.Context, companyID, taskID int64, reader io.Reader, size int64, contentType string) (string, error) {
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}
	key := MediaKey(companyID, taskID, contentType)
	_, err := i.s3client.PutObject(ctx, i.bucketName, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", errors.Wrap(err, "ошибка загрузки файла в S3")
	}
	return key, nil
}

func (i impl) GetFile(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := i.s3client.GetObject(ctx, i.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения файла из S3")
	}
	return obj, nil
}

func (i impl) DeleteFile(ctx context.Context, key string) error {
	err := i.s3client.RemoveObject(ctx, i.bucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		return errors.Wrap(err, "ошибка удаления файла из S3")
	}
	return nil
}
