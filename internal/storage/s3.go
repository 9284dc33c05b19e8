// Package storage хранит тяжелые артефакты (сравнения телеметрии) в S3 в виде gzip JSON
package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const (
	contentTypeGzip = "application/gzip"
	errCodeNotFound = "NotFound"
)

// S3Storage хранилище артефактов в бакете S3
type S3Storage struct {
	client s3iface.S3API
	bucket string
}

// NewS3Storage создает клиент S3 для региона и бакета
func NewS3Storage(region, bucket string) (*S3Storage, error) {
	if bucket == "" {
		return nil, errors.New("S3 bucket name is not set")
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return New(s3.New(sess), bucket), nil
}

// New создает хранилище поверх готового клиента
func New(client s3iface.S3API, bucket string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket}
}

// Bucket возвращает имя бакета
func (s *S3Storage) Bucket() string {
	return s.bucket
}

// UploadJSON сжимает значение и сохраняет его по ключу (перезаписывая существующее)
func (s *S3Storage) UploadJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("failed to compress artifact: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress artifact: %w", err)
	}

	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentTypeGzip),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// DownloadJSON читает артефакт; ok=false если объекта нет.
// Несжатые объекты тоже поддерживаются.
func (s *S3Storage) DownloadJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	body := raw
	if zr, err := gzip.NewReader(bytes.NewReader(raw)); err == nil {
		if unzipped, err := io.ReadAll(zr); err == nil {
			body = unzipped
		}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return true, nil
}

// TelemetryKey ключ объекта сравнения телеметрии
func TelemetryKey(season int, event, session, driverA, driverB string, lapA, lapB *int) string {
	name := fmt.Sprintf("%s_%s_%s_%s.json.gz", driverA, driverB, lapOrFastest(lapA), lapOrFastest(lapB))
	eventPart := strings.ReplaceAll(strings.ReplaceAll(event, " ", "_"), "/", "-")
	return strings.Join([]string{strconv.Itoa(season), eventPart, session, name}, "/")
}

func lapOrFastest(lap *int) string {
	if lap == nil {
		return "fastest"
	}
	return strconv.Itoa(*lap)
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, errCodeNotFound:
			return true
		}
	}
	return false
}
