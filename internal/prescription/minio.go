package prescription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioStore writes each prescription as a JSON object named
// <doctor>/<appointment>.json.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioClient(cfg MinioConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return client, nil
}

// NewMinioStore creates the bucket when it does not exist yet.
func NewMinioStore(ctx context.Context, client *minio.Client, bucket string) (*MinioStore, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

func ObjectName(p Prescription) string {
	return fmt.Sprintf("%s/%s.json", p.DoctorID, p.AppointmentID)
}

func (s *MinioStore) Save(ctx context.Context, p Prescription) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prescription: %w", err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, ObjectName(p), bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put prescription %s in %s: %w", ObjectName(p), s.bucket, err)
	}
	return nil
}
