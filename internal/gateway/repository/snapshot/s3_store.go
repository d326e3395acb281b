package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	gojson "github.com/goccy/go-json"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Prefix is prepended to every object key.
	Prefix string
}

// S3Store writes each snapshot as one JSON object.
type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string
	prefix     string
	initOnce   sync.Once
	initErr    error
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	prefix := strings.Trim(strings.TrimSpace(cfg.Prefix), "/")
	if prefix == "" {
		prefix = "snapshots"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Store{
		client:     client,
		bucketName: bucket,
		region:     region,
		prefix:     prefix + "/",
	}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	if s.initErr != nil {
		return fmt.Errorf("ensure bucket: %w", s.initErr)
	}
	return nil
}

func (s *S3Store) objectKey(id string) string {
	return s.prefix + id + ".json"
}

func (s *S3Store) Put(ctx context.Context, snap Snapshot) error {
	if err := validate(snap); err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	body, err := gojson.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucketName, s.objectKey(snap.ID), bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

func (s *S3Store) Get(ctx context.Context, id string) (Snapshot, error) {
	id, err := normalizeID(id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return Snapshot{}, err
	}
	return s.read(ctx, s.objectKey(id))
}

func (s *S3Store) read(ctx context.Context, key string) (Snapshot, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return Snapshot{}, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := gojson.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return snap, nil
}

func (s *S3Store) List(ctx context.Context) ([]Snapshot, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	var out []Snapshot
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		snap, err := s.read(ctx, obj.Key)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *S3Store) Delete(ctx context.Context, id string) error {
	id, err := normalizeID(id)
	if err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	key := s.objectKey(id)
	if _, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrNotFound
		}
		return err
	}
	return s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{})
}
