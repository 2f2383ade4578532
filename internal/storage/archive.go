package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archiver writes action audit records to S3 for offline analysis.
type Archiver struct {
	s3Client *s3.Client
	bucket   string
}

// NewArchiver creates an S3-backed action archiver
func NewArchiver(ctx context.Context, bucket, region, profile string) (*Archiver, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Archiver{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucket,
	}, nil
}

// ArchiveAction writes one audit record, keyed by day then record ID so a
// day's actions list with a single prefix scan.
func (a *Archiver) ArchiveAction(ctx context.Context, rec ActionRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling action record: %w", err)
	}

	key := fmt.Sprintf("actions/%s/%s.json", rec.Timestamp.UTC().Format("2006/01/02"), rec.ID)
	_, err = a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("putting object to S3: %w", err)
	}

	return nil
}
